package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status": N, "status_name": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
