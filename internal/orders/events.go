package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/oakmart/go-marketplace-orders/internal/kafka"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderSubmitted = "OrderSubmitted"
	EventOrderDone      = "OrderDone"
	EventOrderRejected  = "OrderRejected"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID  string      `json:"order_id"`
	BuyerID  string      `json:"buyer_id"`
	SellerID string      `json:"seller_id"`
	Items    []OrderItem `json:"items"`
}

type OrderTransitionedPayload struct {
	OrderID  string `json:"order_id"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	Status   Status `json:"status"`
	Restock  bool   `json:"restock,omitempty"`
}

// Publisher is the slice of the kafka producer the domain needs.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Emitter publishes lifecycle events. Publishing is fire-and-forget:
// the triggering action has already committed when an event goes out.
// A nil Emitter is a no-op, which keeps tests free of kafka.
type Emitter struct {
	pub      Publisher
	producer string
}

func NewEmitter(pub Publisher, producer string) *Emitter {
	return &Emitter{pub: pub, producer: producer}
}

func (e *Emitter) OrderCreated(ctx context.Context, o *Order) {
	if e == nil {
		return
	}
	e.emit(TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:  o.ID,
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
		Items:    o.Items,
	})
}

func (e *Emitter) OrderTransitioned(ctx context.Context, action Action, o *Order, to Status) {
	if e == nil {
		return
	}
	topic, typ := TopicOrderSubmitted, EventOrderSubmitted
	switch action {
	case ActionDone:
		topic, typ = TopicOrderDone, EventOrderDone
	case ActionReject:
		topic, typ = TopicOrderRejected, EventOrderRejected
	case ActionCancel:
		topic, typ = TopicOrderCancelled, EventOrderCancelled
	}
	e.emit(topic, typ, o.ID, OrderTransitionedPayload{
		OrderID:  o.ID,
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
		Status:   to,
		Restock:  transitions[action].Restock,
	})
}

func (e *Emitter) emit(topic, eventType, orderID string, payload any) {
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.producer,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.pub.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
