package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustbind/pkg/platform/middleware/requestid"
	"trustbind/pkg/platform/middleware/requesttime"
)

// NewRouter wires all public endpoints. The trust endpoints are deliberately
// unauthenticated: any party may call them, and correctness is enforced by the
// binding and validity invariants, not by caller identity.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Post("/trust/register", h.handleTrustRegister)
	r.Post("/trust/untrust", h.handleUntrust)
	r.Post("/trust/untrust-by-credential", h.handleUntrustByCredential)

	r.Post("/bindings", h.handleRegisterMember)
	r.Post("/bindings/auto", h.handleRegisterAuto)
	r.Get("/bindings/{account}", h.handleGetBinding)
	r.Get("/membership/{account}", h.handleMembership)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
