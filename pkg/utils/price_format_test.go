package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  string
	}{
		{"precio alto sin decimales", 65432.78, "$65,433"},
		{"millones", 1234567, "$1,234,567"},
		{"justo mil", 1000, "$1,000"},
		{"dos decimales", 3.14159, "$3.14"},
		{"sin ceros finales", 1.5, "$1.5"},
		{"cuatro decimales", 0.123456, "$0.1235"},
		{"ocho decimales", 0.0000123456, "$0.00001235"},
		{"cero", 0, "$0.00000000"},
		{"negativo", -2500, "-$2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.price))
		})
	}
}
