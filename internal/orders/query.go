package orders

import "context"

// Query is the read side: buyer/seller projections of the order store,
// each enriched with product display details.
type Query struct {
	store Store
}

func NewQuery(store Store) *Query { return &Query{store: store} }

func (q *Query) AllByBuyer(ctx context.Context, buyerID string) ([]OrderWithProductDetail, error) {
	return q.listByBuyer(ctx, buyerID, nil)
}

func (q *Query) RejectedByBuyer(ctx context.Context, buyerID string) ([]OrderWithProductDetail, error) {
	return q.listByBuyer(ctx, buyerID, statusPtr(StatusRejected))
}

func (q *Query) WaitingByBuyer(ctx context.Context, buyerID string) ([]OrderWithProductDetail, error) {
	return q.listByBuyer(ctx, buyerID, statusPtr(StatusWaiting))
}

func (q *Query) SubmittedByBuyer(ctx context.Context, buyerID string) ([]OrderWithProductDetail, error) {
	return q.listByBuyer(ctx, buyerID, statusPtr(StatusSubmitted))
}

// SubmittedBySeller lists the orders awaiting the seller's decision.
func (q *Query) SubmittedBySeller(ctx context.Context, sellerID string) ([]OrderWithProductDetail, error) {
	var out []OrderWithProductDetail
	err := q.store.InTx(ctx, func(tx Tx) error {
		found, err := tx.Orders().FindBySeller(ctx, sellerID, statusPtr(StatusSubmitted))
		if err != nil {
			return err
		}
		out, err = Enrich(ctx, tx.Products(), found)
		return err
	})
	return out, err
}

func (q *Query) listByBuyer(ctx context.Context, buyerID string, status *Status) ([]OrderWithProductDetail, error) {
	var out []OrderWithProductDetail
	err := q.store.InTx(ctx, func(tx Tx) error {
		found, err := tx.Orders().FindByBuyer(ctx, buyerID, status)
		if err != nil {
			return err
		}
		out, err = Enrich(ctx, tx.Products(), found)
		return err
	})
	return out, err
}

// Enrich joins product names onto order lines. A product row that has
// disappeared degrades to an ID-only line instead of failing the read.
func Enrich(ctx context.Context, products ProductStore, found []*Order) ([]OrderWithProductDetail, error) {
	out := make([]OrderWithProductDetail, 0, len(found))
	names := map[string]string{}
	for _, o := range found {
		d := OrderWithProductDetail{
			ID:         o.ID,
			BuyerID:    o.BuyerID,
			SellerID:   o.SellerID,
			Status:     o.Status,
			StatusName: o.Status.String(),
			UpdateTime: o.UpdateTime,
		}
		for _, it := range o.Items {
			name, seen := names[it.ProductID]
			if !seen {
				p, err := products.Get(ctx, it.ProductID)
				if err != nil {
					return nil, err
				}
				if p != nil {
					name = p.Name
				}
				names[it.ProductID] = name
			}
			d.Items = append(d.Items, ItemDetail{ProductID: it.ProductID, ProductName: name, Amount: it.Amount})
		}
		out = append(out, d)
	}
	return out, nil
}

func statusPtr(s Status) *Status { return &s }
