package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/domain/entities"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

type recordingNotifier struct {
	got []entities.Notification
	err error
}

func (r *recordingNotifier) Notify(ctx context.Context, n entities.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func sampleNotification() entities.Notification {
	return entities.Notification{
		AlertID:      "bitcoin-1",
		CoinID:       "bitcoin",
		CoinName:     "Bitcoin",
		CoinSymbol:   "btc",
		Condition:    entities.ConditionAbove,
		TargetPrice:  50000,
		CurrentPrice: 51000,
		TriggeredAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRedisNotifier_PublishesJSON(t *testing.T) {
	pub := new(MockPublisher)
	var published []byte
	pub.On("Publish", mock.Anything, "crypto-pulse:alerts", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil)

	err := NewRedisNotifier(pub, "crypto-pulse:alerts").Notify(context.Background(), sampleNotification())
	require.NoError(t, err)
	pub.AssertExpectations(t)

	var decoded entities.Notification
	require.NoError(t, json.Unmarshal(published, &decoded))
	assert.Equal(t, sampleNotification(), decoded)
}

func TestRedisNotifier_PublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, "alerts", mock.Anything).Return(errors.New("connection refused"))

	err := NewRedisNotifier(pub, "alerts").Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "connection refused")
}

func TestMultiNotifier_DeliversToAllAndJoinsErrors(t *testing.T) {
	errSink := errors.New("sink down")
	first := &recordingNotifier{}
	failing := &recordingNotifier{err: errSink}
	last := &recordingNotifier{}

	multi := NewMultiNotifier(first, nil, failing)
	multi.Add(last)
	multi.Add(nil)

	err := multi.Notify(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, errSink)
	assert.Len(t, first.got, 1)
	assert.Len(t, failing.got, 1)
	assert.Len(t, last.got, 1, "un sink fallido no corta la entrega")
}

func TestMultiNotifier_NoSinks(t *testing.T) {
	assert.NoError(t, NewMultiNotifier().Notify(context.Background(), sampleNotification()))
	assert.NoError(t, NewLogNotifier().Notify(context.Background(), sampleNotification()))
}
