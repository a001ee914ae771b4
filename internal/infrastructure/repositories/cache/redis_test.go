package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient es un mock del cliente Redis
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx, "get", key)
	if err := args.Error(1); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	cmd := redis.NewIntCmd(ctx, "del")
	if err := args.Error(1); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(int64(args.Int(0)))
	}
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	cmd := redis.NewStatusCmd(ctx, "ping")
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func (m *MockRedisClient) DBSize(ctx context.Context) *redis.IntCmd {
	args := m.Called(ctx)
	cmd := redis.NewIntCmd(ctx, "dbsize")
	if err := args.Error(1); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(args.Get(0).(int64))
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	return m.Called().Error(0)
}

func TestRedisCache_Get(t *testing.T) {
	tests := []struct {
		name      string
		mockValue string
		mockErr   error
		want      string
		wantErr   error
	}{
		{"hit", `{"payload":1}`, nil, `{"payload":1}`, nil},
		{"redis.Nil se traduce a ErrKeyNotFound", "", redis.Nil, "", ErrKeyNotFound},
		{"error de conexión se propaga", "", errors.New("connection refused"), "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockRedisClient)
			ctx := context.Background()
			client.On("Get", ctx, "crypto:global").Return(tt.mockValue, tt.mockErr)

			got, err := NewRedisCacheWithClient(client).Get(ctx, "crypto:global")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.mockErr != nil:
				assert.EqualError(t, err, tt.mockErr.Error())
				assert.False(t, IsMiss(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestRedisCache_SetUsesNativeTTL(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Set", ctx, "crypto:trending", "v", time.Minute).Return(nil)

	require.NoError(t, NewRedisCacheWithClient(client).Set(ctx, "crypto:trending", "v", time.Minute))
	client.AssertExpectations(t)
}

func TestRedisCache_AuxiliaryMethods(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Del", ctx, []string{"k"}).Return(1, nil)
	client.On("Ping", ctx).Return(nil)
	client.On("DBSize", ctx).Return(int64(7), nil)
	client.On("Close").Return(nil)

	rc := NewRedisCacheWithClient(client)
	require.NoError(t, rc.Delete(ctx, "k"))
	require.NoError(t, rc.Ping(ctx))
	size, err := rc.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
	require.NoError(t, rc.Close())

	client.AssertExpectations(t)
}

func TestRedisCache_AsResponseCacheBackend(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Get", ctx, "crypto:global").Return("", errors.New("i/o timeout"))

	rc := NewResponseCache(NewRedisCacheWithClient(client), time.Minute)
	payload, ok := rc.Get(ctx, "crypto:global")

	assert.False(t, ok, "un error del backend es un miss")
	assert.Nil(t, payload)
}
