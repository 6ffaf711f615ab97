package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a mutex-guarded in-memory Store used by tests and local
// runs. InTx snapshots the data up front and restores it when fn fails,
// giving the same all-or-nothing behavior as the SQL store.
type MemStore struct {
	mu sync.Mutex
	d  memData
}

type memData struct {
	products map[string]*Product
	cart     map[string]map[string]int64 // userID -> productID -> quantity
	orders   map[string]*Order
}

func NewMemStore() *MemStore {
	return &MemStore{d: memData{
		products: map[string]*Product{},
		cart:     map[string]map[string]int64{},
		orders:   map[string]*Order{},
	}}
}

func (s *MemStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.d.clone()
	if err := fn(&memTx{d: &s.d}); err != nil {
		s.d = snap
		return err
	}
	return nil
}

// SeedProduct inserts or replaces a product outside any transaction.
func (s *MemStore) SeedProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.d.products[p.ID] = &cp
}

// SeedCartLine sets a buyer's cart line outside any transaction.
func (s *MemStore) SeedCartLine(userID, productID string, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.cart[userID] == nil {
		s.d.cart[userID] = map[string]int64{}
	}
	s.d.cart[userID][productID] = quantity
}

func (d memData) clone() memData {
	out := memData{
		products: make(map[string]*Product, len(d.products)),
		cart:     make(map[string]map[string]int64, len(d.cart)),
		orders:   make(map[string]*Order, len(d.orders)),
	}
	for id, p := range d.products {
		cp := *p
		out.products[id] = &cp
	}
	for uid, lines := range d.cart {
		cp := make(map[string]int64, len(lines))
		for pid, q := range lines {
			cp[pid] = q
		}
		out.cart[uid] = cp
	}
	for id, o := range d.orders {
		out.orders[id] = copyOrder(o)
	}
	return out
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp
}

// memTx serves all three store interfaces over the shared data. The
// MemStore lock is already held for the whole transaction.
type memTx struct{ d *memData }

func (t *memTx) Products() ProductStore { return t }
func (t *memTx) Cart() CartStore        { return t }
func (t *memTx) Orders() OrderStore     { return t }

func (t *memTx) Get(ctx context.Context, productID string) (*Product, error) {
	p, ok := t.d.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) DecrementAmount(ctx context.Context, productID string, amount int64) (bool, error) {
	p, ok := t.d.products[productID]
	if !ok || p.AvailableAmount < amount {
		return false, nil
	}
	p.AvailableAmount -= amount
	return true, nil
}

func (t *memTx) IncrementAmount(ctx context.Context, productID string, amount int64) (bool, error) {
	p, ok := t.d.products[productID]
	if !ok {
		return false, nil
	}
	p.AvailableAmount += amount
	return true, nil
}

func (t *memTx) LinesFor(ctx context.Context, userID string) ([]CartLine, error) {
	lines := t.d.cart[userID]
	out := make([]CartLine, 0, len(lines))
	for pid, q := range lines {
		out = append(out, CartLine{UserID: userID, ProductID: pid, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (t *memTx) DecreaseLine(ctx context.Context, userID, productID string, amount int64) (bool, error) {
	lines := t.d.cart[userID]
	if lines == nil || lines[productID] < amount {
		return false, nil
	}
	lines[productID] -= amount
	if lines[productID] == 0 {
		delete(lines, productID)
	}
	return true, nil
}

func (t *memTx) Insert(ctx context.Context, o *Order) error {
	t.d.orders[o.ID] = copyOrder(o)
	return nil
}

func (t *memTx) FindByID(ctx context.Context, orderID string) (*Order, error) {
	o, ok := t.d.orders[orderID]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (t *memTx) FindByBuyer(ctx context.Context, buyerID string, status *Status) ([]*Order, error) {
	return t.find(func(o *Order) bool { return o.BuyerID == buyerID }, status), nil
}

func (t *memTx) FindBySeller(ctx context.Context, sellerID string, status *Status) ([]*Order, error) {
	return t.find(func(o *Order) bool { return o.SellerID == sellerID }, status), nil
}

func (t *memTx) find(match func(*Order) bool, status *Status) []*Order {
	var out []*Order
	for _, o := range t.d.orders {
		if !match(o) || (status != nil && o.Status != *status) {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdateTime.Equal(out[j].UpdateTime) {
			return out[i].UpdateTime.After(out[j].UpdateTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *memTx) UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error) {
	o, ok := t.d.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdateTime = at
	return true, nil
}
