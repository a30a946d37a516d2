package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/xtrntr/p2pdesk/internal/metrics"
	"github.com/xtrntr/p2pdesk/internal/telemetry"
)

// RequestLogger logs one line per request
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := h.log.Info()
		if status >= http.StatusInternalServerError {
			ev = h.log.Error()
		}
		ev.Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Routes builds the HTTP router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(telemetry.Middleware)

	// Enable CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	r.Get("/ws", h.PushChannel)

	// Public endpoints
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/announcements", h.Announcements)

	// Protected endpoints (require JWT)
	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)

		r.Route("/p2p", func(r chi.Router) {
			r.Get("/ads", h.ListAds)
			r.Post("/ads", h.CreateAd)
			r.Get("/ads/{id}", h.GetAd)
			r.Delete("/ads/{id}", h.DeleteAd)
			r.Get("/my-ads", h.MyAds)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.GetUserOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Post("/orders/{id}/{action}", h.OrderAction)

			r.Get("/fee", h.FeeQuote)
		})

		r.Get("/kyc/status", h.KYCStatus)
		r.Post("/kyc", h.SubmitKYC)

		r.Get("/merchant/status", h.MerchantStatus)
		r.Post("/merchant/apply", h.ApplyMerchant)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/auth", h.AdminLogin)
		r.Delete("/auth", h.AdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminAuthMiddleware)

			r.Get("/dashboard", h.Dashboard)
			r.Get("/kyc", h.ListKYC)
			r.Patch("/kyc/{id}", h.ReviewKYC)
			r.Get("/users", h.ListUsers)
			r.Patch("/users/{id}", h.UserAction)
			r.Get("/transactions", h.ListTransactions)
			r.Get("/disputes", h.ListDisputes)
			r.Get("/merchants", h.ListMerchants)
			r.Patch("/merchants/{id}", h.MerchantAction)
			r.Get("/p2p-orders", h.ListP2POrders)
			r.Get("/settings", h.GetSettings)
			r.Patch("/settings", h.UpdateSettings)
			r.Post("/settings/announcements", h.CreateAnnouncement)
			r.Patch("/settings/announcements/{id}", h.UpdateAnnouncement)
			r.Delete("/settings/announcements/{id}", h.DeleteAnnouncement)
			r.Get("/settings/fees", h.GetFeeSettings)
			r.Put("/settings/fees", h.UpdateFeeSettings)
		})
	})

	// Admin pages
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.AdminPageGuard)
		r.Get("/", h.AdminPage)
		r.Get("/*", h.AdminPage)
	})

	return r
}
