package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"
	"github.com/aniss699/ProjectFirst-sub005/pkg/httpx"
	"github.com/aniss699/ProjectFirst-sub005/services/contracts/internal/lifecycle"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Handler exposes the lifecycle engine over HTTP. It stays a thin shell:
// decode, delegate, map errors. Caller identity comes from the X-User-ID
// header set by the upstream auth layer.
type Handler struct {
	engine *lifecycle.Engine
	logger *slog.Logger
	ops    *prometheus.CounterVec
}

func NewHandler(engine *lifecycle.Engine, logger *slog.Logger, ops *prometheus.CounterVec) *Handler {
	return &Handler{engine: engine, logger: logger, ops: ops}
}

func (h *Handler) Mount(r chi.Router) {
	r.Route("/contracts", func(api chi.Router) {
		api.Post("/", h.createContract)
		api.Get("/", h.listContracts)
		api.Get("/{contract_id}", h.getContract)
		api.Post("/{contract_id}/sign", h.signContract)
		api.Patch("/{contract_id}/status", h.transitionContract)
	})
	r.Route("/deliverables", func(api chi.Router) {
		api.Post("/{deliverable_id}/submit", h.submitDeliverable)
		api.Post("/{deliverable_id}/review", h.reviewDeliverable)
	})
}

func (h *Handler) createContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req lifecycle.CreateContractRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	// The authenticated caller is always the client side of the contract.
	req.ClientID = userID
	c, err := h.engine.CreateContract(r.Context(), req)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	h.count("create", "ok")
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) listContracts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	cs, err := h.engine.ListContracts(r.Context(), userID)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	h.count("list", "ok")
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"contracts": cs})
}

func (h *Handler) getContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	c, err := h.engine.GetContract(r.Context(), chi.URLParam(r, "contract_id"), userID)
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	h.count("get", "ok")
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) signContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	c, err := h.engine.Sign(r.Context(), chi.URLParam(r, "contract_id"), userID)
	if err != nil {
		h.fail(w, "sign", err)
		return
	}
	h.count("sign", "ok")
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) transitionContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	status, err := domain.ParseContractStatus(req.Status)
	if err != nil {
		h.fail(w, "transition", err)
		return
	}
	c, err := h.engine.Transition(r.Context(), chi.URLParam(r, "contract_id"), status, userID)
	if err != nil {
		h.fail(w, "transition", err)
		return
	}
	h.count("transition", "ok")
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) submitDeliverable(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req lifecycle.SubmitDeliverableRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	d, err := h.engine.SubmitDeliverable(r.Context(), chi.URLParam(r, "deliverable_id"), userID, req)
	if err != nil {
		h.fail(w, "submit_deliverable", err)
		return
	}
	h.count("submit_deliverable", "ok")
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) reviewDeliverable(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req lifecycle.ReviewDeliverableRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	d, err := h.engine.ReviewDeliverable(r.Context(), chi.URLParam(r, "deliverable_id"), userID, req)
	if err != nil {
		h.fail(w, "review_deliverable", err)
		return
	}
	h.count("review_deliverable", "ok")
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httpx.UserID(r)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing "+httpx.UserIDHeader+" header", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.count(op, "error")
	if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrUnauthorized) &&
		!errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
		// Typed failures are the caller's problem; anything else is storage.
		h.logger.Error("operation failed", "op", op, "error", err)
	}
	httpx.WriteDomainError(w, err)
}

func (h *Handler) count(op, result string) {
	if h.ops != nil {
		h.ops.WithLabelValues(op, result).Inc()
	}
}
