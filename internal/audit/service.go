package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/oakmart/go-marketplace-orders/internal/orders"
	"github.com/oakmart/go-marketplace-orders/internal/redisx"
)

// Service persists every order lifecycle event into the order_events
// table, giving sellers and support a queryable history of who moved an
// order and when. Redis dedup plus ON CONFLICT keep redelivery harmless.
type Service struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	ServiceName string
	Log         zerolog.Logger
}

// HandleEvent is wired as the consumer handler for every lifecycle topic.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// a poison message would block the partition forever; drop it
		s.Log.Error().Err(err).Str("topic", m.Topic).Msg("bad envelope, skipping")
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	_, err := s.DB.Exec(ctx, `INSERT INTO order_events(event_id, order_id, event_type, occurred_at, payload)
	                          VALUES ($1,$2,$3,$4,$5)
	                          ON CONFLICT (event_id) DO NOTHING`,
		env.EventID, env.CorrelationID, env.EventType, env.OccurredAt, []byte(env.Payload))
	if err != nil {
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	s.Log.Debug().Str("event_type", env.EventType).Str("order_id", env.CorrelationID).Msg("event recorded")
	return nil
}
