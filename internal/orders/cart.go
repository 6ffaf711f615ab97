package orders

// ValidateCart checks a creation request against the buyer's cart
// without touching anything: every line must be well-formed, name a
// distinct product, and be fully covered by the cart. All-or-nothing;
// the first violation decides the error.
func ValidateCart(lines []CartLine, items []ItemInput) error {
	if len(items) == 0 {
		return ErrBadRequest
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Amount <= 0 || seen[it.ProductID] {
			return ErrBadRequest
		}
		seen[it.ProductID] = true
	}

	inCart := make(map[string]int64, len(lines))
	for _, l := range lines {
		inCart[l.ProductID] = l.Quantity
	}
	for _, it := range items {
		if inCart[it.ProductID] < it.Amount {
			return ErrNotInCart
		}
	}
	return nil
}
