package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ovenlight/checkout/internal/orders/app"
	"github.com/ovenlight/checkout/internal/orders/app/commands"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// ownerHeader carries the caller identity, authenticated upstream.
const ownerHeader = "X-Owner-ID"

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the order routes to the provided router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{orderID}", h.getOrder)
		r.Post("/orders/{orderID}/cancel", h.cancelOrder)
		r.Post("/orders/{orderID}/status", h.setOrderStatus)
		r.Post("/payments/verify", h.verifyPayment)
		r.Get("/stats", h.getStats)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "caller identity required")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	if stored, err := h.service.GetIdempotentResponse(ctx, idemKey); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload app.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	payload.OwnerID = ownerID

	order, err := h.service.CreateOrder(ctx, payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored := ports.StoredResponse{
		StatusCode: http.StatusCreated,
		Body:       body,
		OrderID:    order.ID,
	}
	if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var payload app.VerifyPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.VerifyPayment(r.Context(), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))

	order, err := h.service.GetOrder(r.Context(), ownerID, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{
		OwnerID: strings.TrimSpace(r.Header.Get(ownerHeader)),
	}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.OrderStatus(statusParam)
		filter.Status = &status
	}
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			filter.Page = page
		}
	}
	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			filter.PageSize = pageSize
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "caller identity required")
		return
	}

	order, err := h.service.CancelOrder(r.Context(), ownerID, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var payload struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.SetOrderStatus(r.Context(), orderID, payload.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Signature
// mismatches surface generically; detail stays in server logs.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalidItem *domain.InvalidItemError
	var invalidAddress *domain.InvalidAddressError
	var missingField *commands.MissingFieldError

	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrProductNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, "payment verification failed")
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrPaymentNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ports.ErrGatewayUnavailable):
		writeError(w, http.StatusBadGateway, "payment gateway unavailable, try again")
	case errors.Is(err, domain.ErrEmptyCart),
		errors.As(err, &invalidItem),
		errors.As(err, &invalidAddress),
		errors.As(err, &missingField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
