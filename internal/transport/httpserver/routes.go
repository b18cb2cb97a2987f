package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"household-app-go/internal/config"
	"household-app-go/internal/metrics"
	"household-app-go/internal/transport/httpserver/handler"
	authmw "household-app-go/internal/transport/httpserver/middleware"
	"household-app-go/pkg/logger"
)

// NewRouter builds the HTTP routes. m may be nil when metrics are disabled.
func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSAllowedOrigins))

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.With(authmw.RequireWebhookSecret(cfg.Webhook.Secret)).
			Post("/webhooks/recurring-chores", handlers.RunRecurringChores)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/households/me", handlers.GetHouseholdMe)
			r.Patch("/households/me", handlers.UpdateHousehold)
			r.Post("/households", handlers.CreateHousehold)
			r.Post("/households/join", handlers.JoinHousehold)
			r.Post("/households/leave", handlers.LeaveHousehold)
			r.Get("/households/me/members", handlers.ListHouseholdMembers)
			r.Delete("/households/me/members/{user_id}", handlers.RemoveHouseholdMember)
			r.Post("/households/me/owner", handlers.TransferOwnership)
			r.Put("/households/me/availability", handlers.SetAvailability)
			r.Get("/households/me/rotation-order", handlers.GetRotationOrder)
			r.Put("/households/me/rotation-order", handlers.SetRotationOrder)

			r.Get("/expenses", handlers.ListExpenses)
			r.Post("/expenses", handlers.CreateExpense)
			r.Get("/expenses/{id}", handlers.GetExpense)
			r.Patch("/expenses/{id}", handlers.UpdateExpense)
			r.Delete("/expenses/{id}", handlers.DeleteExpense)

			r.Get("/balances", handlers.GetBalances)
			r.Get("/balances/summary", handlers.GetBalanceSummary)
			r.Get("/settlements", handlers.ListSettlements)
			r.Post("/settlements", handlers.CreateSettlement)

			r.Get("/chores", handlers.ListChores)
			r.Post("/chores", handlers.CreateChore)
			r.Get("/chores/overdue", handlers.ListOverdueChores)
			r.Patch("/chores/{id}", handlers.UpdateChore)
			r.Delete("/chores/{id}", handlers.DeleteChore)
			r.Post("/chores/{id}/complete", handlers.CompleteChore)
			r.Post("/chores/{id}/reopen", handlers.ReopenChore)

			r.Get("/recurring-chores", handlers.ListTemplates)
			r.Post("/recurring-chores", handlers.CreateTemplate)
			r.Patch("/recurring-chores/{id}", handlers.UpdateTemplate)
			r.Delete("/recurring-chores/{id}", handlers.DeleteTemplate)
			r.Get("/recurring-chores/{id}/rotation", handlers.PreviewTemplateRotation)
		})
	})

	return r
}
