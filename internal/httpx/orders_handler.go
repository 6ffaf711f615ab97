package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oakmart/go-marketplace-orders/internal/orders"
	"github.com/oakmart/go-marketplace-orders/internal/redisx"
)

// userIDHeader carries the already-authenticated user; the gateway in
// front of this service resolves credentials to an id.
const userIDHeader = "X-User-ID"

type OrdersHandler struct {
	Svc   *orders.Service
	Query *orders.Query
	Redis *redis.Client // optional status cache
	Log   zerolog.Logger
}

type createOrderRequest struct {
	Items []orders.ItemInput `json:"items"`
}

type operateOrderRequest struct {
	OrderID string `json:"order_id"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/v1/order", func(r chi.Router) {
		r.Post("/create", h.create)
		r.Post("/makesubmit", h.operate(orders.ActionSubmit))
		r.Post("/makedone", h.operate(orders.ActionDone))
		r.Post("/makereject", h.operate(orders.ActionReject))
		r.Post("/makecancel", h.operate(orders.ActionCancel))

		r.Get("/order/all", h.list(func(ctx context.Context, uid string) ([]orders.OrderWithProductDetail, error) {
			return h.Query.AllByBuyer(ctx, uid)
		}))
		r.Get("/order/reject", h.list(func(ctx context.Context, uid string) ([]orders.OrderWithProductDetail, error) {
			return h.Query.RejectedByBuyer(ctx, uid)
		}))
		r.Get("/order/waiting", h.list(func(ctx context.Context, uid string) ([]orders.OrderWithProductDetail, error) {
			return h.Query.WaitingByBuyer(ctx, uid)
		}))
		r.Get("/order/submit", h.list(func(ctx context.Context, uid string) ([]orders.OrderWithProductDetail, error) {
			return h.Query.SubmittedByBuyer(ctx, uid)
		}))
		r.Get("/check", h.list(func(ctx context.Context, uid string) ([]orders.OrderWithProductDetail, error) {
			return h.Query.SubmittedBySeller(ctx, uid)
		}))
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Svc.Create(ctx, userID, req.Items)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.cacheStatus(ctx, order.ID, order.Status)
	writeJSON(w, http.StatusOK, map[string]string{"message": "success", "order_id": order.ID})
}

func (h *OrdersHandler) operate(action orders.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		var req operateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing order_id"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var err error
		switch action {
		case orders.ActionSubmit:
			err = h.Svc.Submit(ctx, userID, req.OrderID)
		case orders.ActionDone:
			err = h.Svc.Done(ctx, userID, req.OrderID)
		case orders.ActionReject:
			err = h.Svc.Reject(ctx, userID, req.OrderID)
		case orders.ActionCancel:
			err = h.Svc.Cancel(ctx, userID, req.OrderID)
		}
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		h.cacheStatus(ctx, req.OrderID, orders.TargetStatus(action))
		writeJSON(w, http.StatusOK, map[string]string{"message": "success"})
	}
}

func (h *OrdersHandler) list(query func(ctx context.Context, userID string) ([]orders.OrderWithProductDetail, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		out, err := query(ctx, userID)
		if err != nil {
			h.Log.Error().Err(err).Msg("list orders")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
			return
		}
		if out == nil {
			out = []orders.OrderWithProductDetail{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *OrdersHandler) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing user identity"})
		return "", false
	}
	return userID, true
}

// cacheStatus keeps the per-order status cache warm after writes.
func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"status": status, "status_name": status.String()})
	if err := h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn().Err(err).Str("order_id", orderID).Msg("status cache set")
	}
}

func (h *OrdersHandler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		notFoundProduct *orders.ProductNotFoundError
		exceeded        *orders.AmountExceededError
		inconsistent    *orders.InconsistencyError
	)
	switch {
	// checked first: it can wrap a ProductNotFoundError and must not be
	// mistaken for a plain not-found
	case errors.As(err, &inconsistent):
		h.Log.Error().Err(err).Msg("stock restore inconsistency")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.As(err, &notFoundProduct):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.Is(err, orders.ErrInvalidState),
		errors.Is(err, orders.ErrIdentityMismatch),
		errors.Is(err, orders.ErrExpired):
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case errors.Is(err, orders.ErrBadRequest),
		errors.Is(err, orders.ErrNotInCart),
		errors.Is(err, orders.ErrMultiSeller),
		errors.As(err, &exceeded):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	default:
		h.Log.Error().Err(err).Msg("order action")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
