package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaNotifierWritesMessage(t *testing.T) {
	w := new(mockWriter)
	var captured []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).([]kafka.Message)
	}).Return(nil).Once()

	n := NewKafkaNotifierWithWriter(w, "notifications")
	err := n.Notify(context.Background(), Notification{
		Template:  TemplateVendorNewOrder,
		Recipient: "vendor@example.com",
		Data:      map[string]any{"orderNumber": "ORD-1"},
		Key:       "ORD-1",
	})
	require.NoError(t, err)
	w.AssertExpectations(t)

	require.Len(t, captured, 1)
	require.Equal(t, "ORD-1", string(captured[0].Key))
	require.Equal(t, TemplateVendorNewOrder, string(captured[0].Headers[0].Value))

	var decoded Notification
	require.NoError(t, json.Unmarshal(captured[0].Value, &decoded))
	require.Equal(t, "vendor@example.com", decoded.Recipient)
	require.Equal(t, "ORD-1", decoded.Data["orderNumber"])
}

func TestKafkaNotifierRetriesTemporaryErrors(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(kafka.LeaderNotAvailable).Twice()
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

	n := NewKafkaNotifierWithWriter(w, "notifications")
	require.NoError(t, n.Notify(context.Background(), Notification{Template: "t"}))
	w.AssertNumberOfCalls(t, "WriteMessages", 3)
}

func TestKafkaNotifierStopsOnPermanentError(t *testing.T) {
	w := new(mockWriter)
	boom := errors.New("boom")
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(boom).Once()

	n := NewKafkaNotifierWithWriter(w, "notifications")
	err := n.Notify(context.Background(), Notification{Template: "t"})
	require.ErrorIs(t, err, boom)
	w.AssertNumberOfCalls(t, "WriteMessages", 1)
}

func TestKafkaNotifierClose(t *testing.T) {
	w := new(mockWriter)
	w.On("Close").Return(nil).Once()

	n := NewKafkaNotifierWithWriter(w, "notifications")
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	require.ErrorIs(t, n.Notify(context.Background(), Notification{}), ErrNotifierClosed)
	w.AssertExpectations(t)
}

func TestLogNotifier(t *testing.T) {
	logger := zerolog.Nop()
	n := NewLogNotifier(&logger)
	require.NoError(t, n.Notify(context.Background(), Notification{Template: "t"}))
	require.NoError(t, n.Close())
}
