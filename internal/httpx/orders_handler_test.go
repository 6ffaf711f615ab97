package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/go-marketplace-orders/internal/orders"
)

func newTestRouter(t *testing.T) (*chi.Mux, *orders.MemStore) {
	t.Helper()
	store := orders.NewMemStore()
	h := &OrdersHandler{
		Svc:   orders.NewService(store, nil, zerolog.Nop()),
		Query: orders.NewQuery(store),
		Log:   zerolog.Nop(),
	}
	r := chi.NewRouter()
	h.Register(r)
	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seed(store *orders.MemStore) {
	store.SeedProduct(orders.Product{ID: "p1", SellerID: "seller", Name: "Widget", AvailableAmount: 5})
	store.SeedProduct(orders.Product{ID: "p2", SellerID: "other", Name: "Gadget", AvailableAmount: 5})
	store.SeedCartLine("buyer", "p1", 3)
	store.SeedCartLine("buyer", "p2", 3)
}

func TestCreateEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, store := newTestRouter(t)
		seed(store)

		w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
			map[string]any{"items": []orders.ItemInput{{ProductID: "p1", Amount: 3}}})
		require.Equal(t, http.StatusOK, w.Code)
		msg := decodeMessage(t, w)
		assert.Equal(t, "success", msg["message"])
		assert.NotEmpty(t, msg["order_id"])
	})

	t.Run("missing identity", func(t *testing.T) {
		r, _ := newTestRouter(t)
		w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		r, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/order/create", bytes.NewBufferString("{"))
		req.Header.Set(userIDHeader, "buyer")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("multi seller rejected", func(t *testing.T) {
		r, store := newTestRouter(t)
		seed(store)

		w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
			map[string]any{"items": []orders.ItemInput{
				{ProductID: "p1", Amount: 1},
				{ProductID: "p2", Amount: 1},
			}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		r, store := newTestRouter(t)
		store.SeedCartLine("buyer", "ghost", 1)

		w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
			map[string]any{"items": []orders.ItemInput{{ProductID: "ghost", Amount: 1}}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	r, store := newTestRouter(t)
	seed(store)

	w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
		map[string]any{"items": []orders.ItemInput{{ProductID: "p1", Amount: 2}}})
	require.Equal(t, http.StatusOK, w.Code)
	orderID := decodeMessage(t, w)["order_id"]
	require.NotEmpty(t, orderID)

	t.Run("submit unknown order", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "buyer",
			map[string]string{"order_id": "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing order_id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "buyer", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong actor", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "seller",
			map[string]string{"order_id": orderID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("submit then done", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "buyer",
			map[string]string{"order_id": orderID})
		require.Equal(t, http.StatusOK, w.Code)

		// resubmitting hits the state guard
		w = doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "buyer",
			map[string]string{"order_id": orderID})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = doJSON(t, r, http.MethodPost, "/api/v1/order/makedone", "seller",
			map[string]string{"order_id": orderID})
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRejectAndCancelEndpoints(t *testing.T) {
	r, store := newTestRouter(t)
	seed(store)

	w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
		map[string]any{"items": []orders.ItemInput{{ProductID: "p1", Amount: 2}}})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeMessage(t, w)["order_id"]

	w = doJSON(t, r, http.MethodPost, "/api/v1/order/makereject", "seller",
		map[string]string{"order_id": first})
	require.Equal(t, http.StatusOK, w.Code)

	// stock restored, so the same purchase fits again
	w = doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
		map[string]any{"items": []orders.ItemInput{{ProductID: "p1", Amount: 1}}})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeMessage(t, w)["order_id"]

	w = doJSON(t, r, http.MethodPost, "/api/v1/order/makecancel", "buyer",
		map[string]string{"order_id": second})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/order/makecancel", "buyer",
		map[string]string{"order_id": second})
	assert.Equal(t, http.StatusConflict, w.Code, "second cancel hits the state guard")
}

func TestListEndpoints(t *testing.T) {
	r, store := newTestRouter(t)
	seed(store)

	w := doJSON(t, r, http.MethodPost, "/api/v1/order/create", "buyer",
		map[string]any{"items": []orders.ItemInput{{ProductID: "p1", Amount: 1}}})
	require.Equal(t, http.StatusOK, w.Code)
	orderID := decodeMessage(t, w)["order_id"]
	w = doJSON(t, r, http.MethodPost, "/api/v1/order/makesubmit", "buyer",
		map[string]string{"order_id": orderID})
	require.Equal(t, http.StatusOK, w.Code)

	decodeList := func(w *httptest.ResponseRecorder) []orders.OrderWithProductDetail {
		var out []orders.OrderWithProductDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	t.Run("buyer views", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/order/order/all", "buyer", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeList(w), 1)

		w = doJSON(t, r, http.MethodGet, "/api/v1/order/order/submit", "buyer", nil)
		require.Equal(t, http.StatusOK, w.Code)
		out := decodeList(w)
		require.Len(t, out, 1)
		assert.Equal(t, orderID, out[0].ID)
		require.Len(t, out[0].Items, 1)
		assert.Equal(t, "Widget", out[0].Items[0].ProductName)

		w = doJSON(t, r, http.MethodGet, "/api/v1/order/order/waiting", "buyer", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeList(w))

		w = doJSON(t, r, http.MethodGet, "/api/v1/order/order/reject", "buyer", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeList(w))
	})

	t.Run("seller checks submitted orders", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/order/check", "seller", nil)
		require.Equal(t, http.StatusOK, w.Code)
		out := decodeList(w)
		require.Len(t, out, 1)
		assert.Equal(t, orderID, out[0].ID)
	})

	t.Run("lists require identity", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/order/order/all", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
