package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CancelWindow is how long a buyer may cancel a not-yet-submitted order,
// measured from its last status change.
const CancelWindow = 7 * 24 * time.Hour

// Service applies the order lifecycle: cart-validated creation with
// stock reservation, and the guarded submit/done/reject/cancel
// transitions with compensating restock.
type Service struct {
	store  Store
	events *Emitter
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, events *Emitter, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    log.With().Str("component", "orders").Logger(),
		now:    time.Now,
	}
}

// Create reserves stock for a validated cart subset and records a new
// order in StatusWaiting. Validation (cart coverage, product existence,
// amounts, single seller) happens in a read-only pass before any stock
// or cart line is touched, and the whole call runs in one store
// transaction, so a failing request leaves no trace.
func (s *Service) Create(ctx context.Context, buyerID string, items []ItemInput) (*Order, error) {
	var order *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		lines, err := tx.Cart().LinesFor(ctx, buyerID)
		if err != nil {
			return err
		}
		if err := ValidateCart(lines, items); err != nil {
			return err
		}

		sellerID := ""
		for _, it := range items {
			p, err := tx.Products().Get(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return &ProductNotFoundError{ProductID: it.ProductID}
			}
			if it.Amount > p.AvailableAmount {
				return &AmountExceededError{ProductID: it.ProductID}
			}
			if sellerID == "" {
				sellerID = p.SellerID
			} else if p.SellerID != sellerID {
				return ErrMultiSeller
			}
		}

		// Everything checked out; now mutate. The decrement is still
		// conditional so a concurrent order cannot drive stock negative.
		for _, it := range items {
			ok, err := tx.Products().DecrementAmount(ctx, it.ProductID, it.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return &AmountExceededError{ProductID: it.ProductID}
			}
		}
		for _, it := range items {
			ok, err := tx.Cart().DecreaseLine(ctx, buyerID, it.ProductID, it.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotInCart
			}
		}

		order = &Order{
			ID:         uuid.NewString(),
			BuyerID:    buyerID,
			SellerID:   sellerID,
			Status:     StatusWaiting,
			UpdateTime: s.now(),
		}
		for _, it := range items {
			order.Items = append(order.Items, OrderItem{ProductID: it.ProductID, Amount: it.Amount})
		}
		return tx.Orders().Insert(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("order_id", order.ID).Str("buyer_id", buyerID).
		Str("seller_id", order.SellerID).Int("items", len(order.Items)).Msg("order created")
	s.events.OrderCreated(ctx, order)
	return order, nil
}

// Submit moves a waiting order to submitted; only the buyer may do it.
func (s *Service) Submit(ctx context.Context, actorID, orderID string) error {
	return s.transition(ctx, actorID, orderID, ActionSubmit)
}

// Done marks a submitted order as completed; only the seller may do it.
func (s *Service) Done(ctx context.Context, actorID, orderID string) error {
	return s.transition(ctx, actorID, orderID, ActionDone)
}

// Reject lets the seller refuse an order before or after submit and
// gives the reserved stock back.
func (s *Service) Reject(ctx context.Context, actorID, orderID string) error {
	return s.transition(ctx, actorID, orderID, ActionReject)
}

// Cancel lets the buyer withdraw a not-yet-submitted order within
// CancelWindow of its last status change, restoring the reserved stock.
func (s *Service) Cancel(ctx context.Context, actorID, orderID string) error {
	return s.transition(ctx, actorID, orderID, ActionCancel)
}

func (s *Service) transition(ctx context.Context, actorID, orderID string, action Action) error {
	rule := transitions[action]
	var order *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		required := o.BuyerID
		if rule.Actor == RoleSeller {
			required = o.SellerID
		}
		if actorID != required {
			return ErrIdentityMismatch
		}
		if !rule.From[o.Status] {
			return ErrInvalidState
		}
		if action == ActionCancel && s.now().Sub(o.UpdateTime) > CancelWindow {
			return ErrExpired
		}

		ok, err := tx.Orders().UpdateStatus(ctx, o.ID, o.Status, rule.To, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}

		if rule.Restock {
			for _, it := range o.Items {
				applied, err := tx.Products().IncrementAmount(ctx, it.ProductID, it.Amount)
				if err != nil {
					return &InconsistencyError{OrderID: o.ID, Err: err}
				}
				if !applied {
					return &InconsistencyError{OrderID: o.ID, Err: &ProductNotFoundError{ProductID: it.ProductID}}
				}
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("order_id", orderID).Str("actor_id", actorID).
		Str("action", string(action)).Stringer("status", rule.To).Msg("order transition")
	s.events.OrderTransitioned(ctx, action, order, rule.To)
	return nil
}
