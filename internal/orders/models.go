package orders

import "time"

type Product struct {
	ID              string
	SellerID        string
	Name            string
	AvailableAmount int64
}

// CartLine is a pending (product, quantity) pick for a buyer; it is
// consumed when the buyer checks the product out into an order.
type CartLine struct {
	UserID    string
	ProductID string
	Quantity  int64
}

type OrderItem struct {
	ProductID string
	Amount    int64
}

// Order is the aggregate root. All items belong to a single seller and
// Items is never empty. UpdateTime moves on every status transition and
// anchors the cancel window.
type Order struct {
	ID         string
	BuyerID    string
	SellerID   string
	Status     Status
	UpdateTime time.Time
	Items      []OrderItem
}

// ItemInput is one (product, amount) pair of a creation request.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
}

// ItemDetail is an order line joined with product display data.
type ItemDetail struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Amount      int64  `json:"amount"`
}

// OrderWithProductDetail is the read-side projection returned by all
// list queries: the order plus display details for each line.
type OrderWithProductDetail struct {
	ID         string       `json:"id"`
	BuyerID    string       `json:"buyer_id"`
	SellerID   string       `json:"seller_id"`
	Status     Status       `json:"status"`
	StatusName string       `json:"status_name"`
	UpdateTime time.Time    `json:"update_time"`
	Items      []ItemDetail `json:"items"`
}
