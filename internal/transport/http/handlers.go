// Package httptransport is the thin HTTP layer over the binding and trust
// services. Handlers parse, delegate, and translate coded errors; business
// logic stays in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"trustbind/internal/binding"
	"trustbind/internal/trust"
	"trustbind/pkg/domain"
	dErrors "trustbind/pkg/domain-errors"
	"trustbind/pkg/platform/sentinel"
)

type Handler struct {
	trust   *trust.Service
	binding *binding.Service
	log     zerolog.Logger
}

func NewHandler(trustSvc *trust.Service, bindingSvc *binding.Service, log zerolog.Logger) *Handler {
	return &Handler{
		trust:   trustSvc,
		binding: bindingSvc,
		log:     log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) handleTrustRegister(w http.ResponseWriter, r *http.Request) {
	var req registerTrustRequest
	if !decode(w, r, &req) {
		return
	}
	id, account, err := req.parse()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.trust.Register(r.Context(), id, account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "trusted"})
}

func (h *Handler) handleUntrust(w http.ResponseWriter, r *http.Request) {
	var req untrustRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := domain.ParseAccount(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.trust.Untrust(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) handleUntrustByCredential(w http.ResponseWriter, r *http.Request) {
	var req untrustByCredentialRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := domain.ParseCredentialID(req.CredentialID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.trust.UntrustByCredential(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if !decode(w, r, &req) {
		return
	}
	account, holder, err := req.parse()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.binding.RegisterMember(r.Context(), account, holder); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "bound"})
}

func (h *Handler) handleRegisterAuto(w http.ResponseWriter, r *http.Request) {
	var req registerAutoRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := domain.ParseAccount(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.binding.RegisterMemberAuto(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "bound"})
}

func (h *Handler) handleGetBinding(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.binding.CredentialOf(r.Context(), account)
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "account is not bound"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bindingResponse{Account: account, CredentialID: id})
}

func (h *Handler) handleMembership(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		writeError(w, err)
		return
	}
	eligible, err := h.binding.PassesMembershipCondition(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membershipResponse{Account: account, Eligible: eligible})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes coded error translation so every endpoint returns the
// same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	var derr *dErrors.Error
	if errors.As(err, &derr) {
		message = derr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: string(code), Message: message},
	})
}
