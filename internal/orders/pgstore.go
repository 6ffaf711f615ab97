package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the postgres-backed Store. Every InTx call maps to one SQL
// transaction, so the creation reservation and the transition+restock
// pairs commit or roll back as a unit.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// querier is the pgx surface shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTx struct{ q querier }

func (t *pgTx) Products() ProductStore { return t }
func (t *pgTx) Cart() CartStore        { return t }
func (t *pgTx) Orders() OrderStore     { return t }

func (t *pgTx) Get(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := t.q.QueryRow(ctx, `SELECT id, seller_id, name, available_amount
	                          FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.SellerID, &p.Name, &p.AvailableAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DecrementAmount is a compare-and-decrement: the WHERE clause keeps
// available_amount from ever going negative under concurrent creates.
func (t *pgTx) DecrementAmount(ctx context.Context, productID string, amount int64) (bool, error) {
	ct, err := t.q.Exec(ctx, `UPDATE products
	                          SET available_amount = available_amount - $2
	                          WHERE id=$1 AND available_amount >= $2`, productID, amount)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) IncrementAmount(ctx context.Context, productID string, amount int64) (bool, error) {
	ct, err := t.q.Exec(ctx, `UPDATE products
	                          SET available_amount = available_amount + $2
	                          WHERE id=$1`, productID, amount)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) LinesFor(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := t.q.Query(ctx, `SELECT user_id, product_id, quantity
	                             FROM cart_lines WHERE user_id=$1 ORDER BY product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.UserID, &l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) DecreaseLine(ctx context.Context, userID, productID string, amount int64) (bool, error) {
	ct, err := t.q.Exec(ctx, `UPDATE cart_lines
	                          SET quantity = quantity - $3
	                          WHERE user_id=$1 AND product_id=$2 AND quantity >= $3`,
		userID, productID, amount)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() != 1 {
		return false, nil
	}
	// drained lines disappear from the cart
	_, err = t.q.Exec(ctx, `DELETE FROM cart_lines
	                        WHERE user_id=$1 AND product_id=$2 AND quantity = 0`, userID, productID)
	return err == nil, err
}

func (t *pgTx) Insert(ctx context.Context, o *Order) error {
	_, err := t.q.Exec(ctx, `INSERT INTO orders(id, buyer_id, seller_id, status, update_time)
	                         VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.BuyerID, o.SellerID, int(o.Status), o.UpdateTime)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := t.q.Exec(ctx, `INSERT INTO order_items(order_id, product_id, amount)
		                            VALUES ($1,$2,$3)`, o.ID, it.ProductID, it.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) FindByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	var status int
	err := t.q.QueryRow(ctx, `SELECT id, buyer_id, seller_id, status, update_time
	                          FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.BuyerID, &o.SellerID, &status, &o.UpdateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if err := t.loadItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *pgTx) FindByBuyer(ctx context.Context, buyerID string, status *Status) ([]*Order, error) {
	return t.findBy(ctx, "buyer_id", buyerID, status)
}

func (t *pgTx) FindBySeller(ctx context.Context, sellerID string, status *Status) ([]*Order, error) {
	return t.findBy(ctx, "seller_id", sellerID, status)
}

func (t *pgTx) findBy(ctx context.Context, column, userID string, status *Status) ([]*Order, error) {
	sql := `SELECT id, buyer_id, seller_id, status, update_time
	        FROM orders WHERE ` + column + `=$1`
	args := []any{userID}
	if status != nil {
		sql += ` AND status=$2`
		args = append(args, int(*status))
	}
	sql += ` ORDER BY update_time DESC, id`

	rows, err := t.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		var o Order
		var st int
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.SellerID, &st, &o.UpdateTime); err != nil {
			return nil, err
		}
		o.Status = Status(st)
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, t.loadItems(ctx, out)
}

func (t *pgTx) loadItems(ctx context.Context, found []*Order) error {
	if len(found) == 0 {
		return nil
	}
	ids := make([]string, 0, len(found))
	byID := make(map[string]*Order, len(found))
	for _, o := range found {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}
	rows, err := t.q.Query(ctx, `SELECT order_id, product_id, amount
	                             FROM order_items WHERE order_id = ANY($1) ORDER BY product_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Amount); err != nil {
			return err
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (t *pgTx) UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error) {
	ct, err := t.q.Exec(ctx, `UPDATE orders SET status=$3, update_time=$4
	                          WHERE id=$1 AND status=$2`, orderID, int(from), int(to), at)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
