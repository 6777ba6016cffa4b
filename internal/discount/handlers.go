package discount

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/marketplace-discounts/internal/common"
)

// Handler wires the discount engine to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type evaluateRequest struct {
	CartID int64 `json:"-" validate:"required,gt=0"`
	UserID int64 `json:"userId" validate:"omitempty,gt=0"`
}

// Evaluate computes and applies automatic vendor discounts for a cart.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return
	}
	req := evaluateRequest{CartID: cartIDParam(r)}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
			return
		}
	}
	if err := h.validateRequest(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart id is required", nil)
		return
	}
	result, err := h.Svc.Evaluate(r.Context(), req.CartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Get returns the persisted applied-discount rows for a cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return
	}
	cartID := cartIDParam(r)
	if cartID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	rows, err := h.Svc.Persisted(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rows == nil {
		rows = []VendorDiscount{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"appliedDiscounts": rows}})
}

// Clear removes the persisted applied-discount rows for a cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return
	}
	cartID := cartIDParam(r)
	if cartID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), cartID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validateRequest(req evaluateRequest) error {
	if h.Validate != nil {
		return h.Validate.Struct(req)
	}
	if req.CartID <= 0 {
		return ErrInvalidInput
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to evaluate discounts", nil)
	}
}

func cartIDParam(r *http.Request) int64 {
	raw := chi.URLParam(r, "cartID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
