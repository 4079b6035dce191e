package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
	}
	got, err := UnwrapPayload[payload](json.RawMessage(`{"order_id":"o-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrderID)

	_, err = UnwrapPayload[payload](json.RawMessage(`[`))
	assert.Error(t, err)
}

func TestHeaderValue(t *testing.T) {
	h := []kafka.Header{{Key: "x-event-type", Value: []byte("ProductSold")}}
	assert.Equal(t, "ProductSold", HeaderValue(h, "x-event-type"))
	assert.Empty(t, HeaderValue(h, "traceparent"))
}
