// Package router wires every HTTP and websocket endpoint onto one ServeMux.
//
// Route groups:
//   - public:        auth register/login, the payment gateway webhook,
//     /healthz and /metrics
//   - websockets:    /ws/* endpoints authenticate themselves via the
//     {token} path segment, so they sit outside the Authenticate chain
//   - authenticated: everything under /api/v1 except the public routes
//   - admin:         token grants, gated on the admin role
package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/auth"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/geo"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/messages"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/notifications"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/offers"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/payments"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/profiles"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/ratings"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/realtime"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

// Deps carries every handler the router mounts plus the token validator
// backing the Authenticate middleware.
type Deps struct {
	Auth          *auth.Handler
	Wallet        *wallet.Handler
	Jobs          *jobs.Handler
	Geo           *geo.Handler
	Offers        *offers.Handler
	Messages      *messages.Handler
	Notifications *notifications.Handler
	Payments      *payments.Handler
	Profiles      *profiles.Handler
	Ratings       *ratings.Handler
	Realtime      *realtime.Handler
	Validator     middleware.TokenValidator
}

// New builds the full route table and returns it wrapped in the metrics
// middleware. Method patterns keep dispatch in the mux; handlers read path
// values with r.PathValue.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Authenticate(d.Validator)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	secure := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	// --- Public ---

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", d.Auth.Login)

	// The gateway calls back without a bearer token; the handler matches the
	// payment by reference and settlement itself is idempotent.
	mux.HandleFunc("POST /api/v1/payments/webhook", d.Payments.Webhook)

	// --- Websockets ---

	mux.HandleFunc("GET /ws/notifications/{token}", d.Realtime.Notifications)
	mux.HandleFunc("GET /ws/chat/{token}", d.Realtime.Chat)
	mux.HandleFunc("GET /ws/location/{token}", d.Realtime.Location)

	// --- Auth ---

	secure("POST /api/v1/auth/logout", d.Auth.Logout)
	secure("GET /api/v1/auth/me", d.Auth.Me)

	// --- Wallet ---

	secure("GET /api/v1/wallet", d.Wallet.GetWallet)
	secure("GET /api/v1/wallet/transactions", d.Wallet.ListTransactions)

	// --- Jobs ---

	// "nearby" must outrank the {id} wildcard; literal segments win in the
	// mux, so both patterns can coexist.
	secure("POST /api/v1/jobs", d.Jobs.Create)
	secure("GET /api/v1/jobs", d.Jobs.List)
	secure("GET /api/v1/jobs/nearby", d.Geo.NearbyJobs)
	secure("GET /api/v1/jobs/{id}", d.Jobs.Get)
	secure("PATCH /api/v1/jobs/{id}/status", d.Jobs.UpdateStatus)

	// --- Locations ---

	secure("POST /api/v1/locations/update", d.Geo.UpdateLocation)
	secure("GET /api/v1/locations/workers", d.Geo.NearbyWorkers)
	secure("GET /api/v1/locations/heatmap", d.Geo.Heatmap)

	// --- Offers ---

	secure("POST /api/v1/offers", d.Offers.Create)
	secure("GET /api/v1/offers/sent", d.Offers.ListSent)
	secure("GET /api/v1/offers/received", d.Offers.ListReceived)
	secure("GET /api/v1/offers/job/{job_id}", d.Offers.ListForJob)
	secure("PATCH /api/v1/offers/{id}", d.Offers.Respond)

	// --- Messages ---

	secure("POST /api/v1/messages", d.Messages.Send)
	secure("GET /api/v1/messages/conversations", d.Messages.Conversations)
	secure("GET /api/v1/messages/{partner_id}", d.Messages.Thread)

	// --- Notifications ---

	secure("GET /api/v1/notifications", d.Notifications.List)
	secure("GET /api/v1/notifications/unread-count", d.Notifications.UnreadCount)
	secure("PATCH /api/v1/notifications/read-all", d.Notifications.MarkAllRead)
	secure("PATCH /api/v1/notifications/{id}/read", d.Notifications.MarkRead)

	// --- Payments ---

	secure("POST /api/v1/tokens/purchase", d.Payments.Purchase)
	secure("GET /api/v1/payments", d.Payments.ListPayments)
	secure("GET /api/v1/payments/{id}", d.Payments.GetPayment)

	// --- Profiles & ratings ---

	secure("GET /api/v1/profile", d.Profiles.GetOwn)
	secure("PUT /api/v1/profile", d.Profiles.UpdateOwn)
	secure("GET /api/v1/users/{id}/profile", d.Profiles.GetPublic)
	secure("POST /api/v1/ratings", d.Ratings.Rate)
	secure("GET /api/v1/users/{id}/ratings", d.Ratings.ListForUser)

	// --- Admin ---

	mux.Handle("POST /api/v1/admin/tokens/grant", authed(adminOnly(http.HandlerFunc(d.Wallet.GrantTokens))))

	return middleware.Instrument(mux)
}
