package kafka

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"email": "ada@example.com"}
	event, err := NewEvent("user.registered", "user-1", "user", "blissora", payload)
	require.NoError(t, err)

	_, err = uuid.Parse(event.EventID)
	assert.NoError(t, err, "event ID should be a UUID")
	assert.Equal(t, "user.registered", event.EventType)
	assert.Equal(t, "user-1", event.AggregateID)
	assert.Equal(t, "user", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "blissora", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_RoundTrip(t *testing.T) {
	event, err := NewEvent("order.created", "order-9", "order", "blissora", map[string]any{
		"order_number": "ORD1700000000000123",
		"total":        int64(12900),
	})
	require.NoError(t, err)
	event.WithCorrelationID("corr-7").WithMetadata("channel", "web")

	raw, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-7", decoded.CorrelationID)
	assert.Equal(t, "web", decoded.Metadata["channel"])

	var data struct {
		OrderNumber string `json:"order_number"`
		Total       int64  `json:"total"`
	}
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, "ORD1700000000000123", data.OrderNumber)
	assert.Equal(t, int64(12900), data.Total)
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{broken"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "blissora.user.registered", Topic("user", "registered"))
	assert.Equal(t, "blissora.order.created", Topic("order", "created"))
}
