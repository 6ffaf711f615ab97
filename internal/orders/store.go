package orders

import (
	"context"
	"time"
)

// Tx is a consistent view of the three stores. All domain operations run
// inside Store.InTx so that stock, cart and order mutations within one
// action commit or roll back as a unit.
type Tx interface {
	Products() ProductStore
	Cart() CartStore
	Orders() OrderStore
}

type Store interface {
	// InTx runs fn against a transactional view. If fn returns an error
	// the transaction is rolled back and the error is returned as-is.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type ProductStore interface {
	// Get returns nil when the product does not exist.
	Get(ctx context.Context, productID string) (*Product, error)
	// DecrementAmount subtracts amount from available stock only if
	// enough is available; it reports whether the update applied.
	DecrementAmount(ctx context.Context, productID string, amount int64) (bool, error)
	// IncrementAmount gives reserved stock back; it reports whether the
	// product row exists.
	IncrementAmount(ctx context.Context, productID string, amount int64) (bool, error)
}

type CartStore interface {
	LinesFor(ctx context.Context, userID string) ([]CartLine, error)
	// DecreaseLine subtracts amount from the buyer's cart line only if
	// the line holds at least that much; it reports whether it applied.
	DecreaseLine(ctx context.Context, userID, productID string, amount int64) (bool, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o *Order) error
	// FindByID returns nil when the order does not exist.
	FindByID(ctx context.Context, orderID string) (*Order, error)
	// FindByBuyer lists a buyer's orders, newest first; status narrows
	// the result when non-nil.
	FindByBuyer(ctx context.Context, buyerID string, status *Status) ([]*Order, error)
	FindBySeller(ctx context.Context, sellerID string, status *Status) ([]*Order, error)
	// UpdateStatus moves an order from one status to another only if it
	// is still in the expected source status. The conditional write is
	// what makes a second reject of the same order fail instead of
	// double-restoring stock.
	UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error)
}
