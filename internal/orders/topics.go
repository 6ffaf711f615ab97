package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderSubmitted = "order.submitted"
	TopicOrderDone      = "order.done"
	TopicOrderRejected  = "order.rejected"
	TopicOrderCancelled = "order.cancelled"
)

// LifecycleTopics lists every topic the service publishes to, in the
// order events can occur.
func LifecycleTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderSubmitted,
		TopicOrderDone,
		TopicOrderRejected,
		TopicOrderCancelled,
	}
}

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
