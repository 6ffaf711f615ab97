package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/oakmart/go-marketplace-orders/internal/kafka"
)

type capturedMessage struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafkago.Header
}

type capturePublisher struct {
	messages []capturedMessage
}

func (p *capturePublisher) Publish(topic string, key, value []byte, headers ...kafkago.Header) {
	p.messages = append(p.messages, capturedMessage{topic: topic, key: key, value: value, headers: headers})
}

func TestEmitterOrderCreated(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, "order-api")

	o := &Order{
		ID: "o1", BuyerID: "b", SellerID: "s", Status: StatusWaiting,
		UpdateTime: time.Now(), Items: []OrderItem{{ProductID: "p1", Amount: 2}},
	}
	e.OrderCreated(context.Background(), o)

	require.Len(t, pub.messages, 1)
	m := pub.messages[0]
	assert.Equal(t, TopicOrderCreated, m.topic)
	assert.Equal(t, []byte("o1"), m.key)

	var env Envelope
	require.NoError(t, json.Unmarshal(m.value, &env))
	assert.Equal(t, EventOrderCreated, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "order-api", env.Producer)
	assert.Equal(t, "o1", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	payload, err := kafkax.UnwrapPayload[OrderCreatedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "b", payload.BuyerID)
	assert.Equal(t, "s", payload.SellerID)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, int64(2), payload.Items[0].Amount)
}

func TestEmitterTransitions(t *testing.T) {
	o := &Order{ID: "o1", BuyerID: "b", SellerID: "s"}

	cases := []struct {
		action  Action
		topic   string
		typ     string
		restock bool
	}{
		{ActionSubmit, TopicOrderSubmitted, EventOrderSubmitted, false},
		{ActionDone, TopicOrderDone, EventOrderDone, false},
		{ActionReject, TopicOrderRejected, EventOrderRejected, true},
		{ActionCancel, TopicOrderCancelled, EventOrderCancelled, true},
	}
	for _, c := range cases {
		pub := &capturePublisher{}
		e := NewEmitter(pub, "order-api")
		e.OrderTransitioned(context.Background(), c.action, o, TargetStatus(c.action))

		require.Len(t, pub.messages, 1, "action %s", c.action)
		assert.Equal(t, c.topic, pub.messages[0].topic)

		var env Envelope
		require.NoError(t, json.Unmarshal(pub.messages[0].value, &env))
		assert.Equal(t, c.typ, env.EventType)

		payload, err := kafkax.UnwrapPayload[OrderTransitionedPayload](env.Payload)
		require.NoError(t, err)
		assert.Equal(t, TargetStatus(c.action), payload.Status)
		assert.Equal(t, c.restock, payload.Restock)
	}
}

func TestNilEmitterIsNoop(t *testing.T) {
	var e *Emitter
	e.OrderCreated(context.Background(), &Order{ID: "o1"})
	e.OrderTransitioned(context.Background(), ActionSubmit, &Order{ID: "o1"}, StatusSubmitted)
}
