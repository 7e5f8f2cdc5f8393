package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/account"
	"github.com/carebridge/booking-platform/internal/assistant"
	"github.com/carebridge/booking-platform/internal/availability"
	"github.com/carebridge/booking-platform/internal/booking"
	"github.com/carebridge/booking-platform/internal/identity"
	"github.com/carebridge/booking-platform/internal/signup"
)

type RouterConfig struct {
	Availability *availability.Service
	Booking      *booking.Service
	Signup       *signup.Service
	Account      *account.Service
	AccountRepo  account.Repository
	Assistants   assistant.Registry
	Verifier     *identity.TokenVerifier
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	Log          *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public availability lookups
	r.Get("/doctors/{doctorID}/availability", listAvailableDatesHandler(cfg.Availability))
	r.Get("/doctors/{doctorID}/availability/{date}", listBookableTimesHandler(cfg.Availability))

	// Booking
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RolePatient))
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/bookings", createBookingHandler(cfg.Booking))
		r.Get("/patients/me/bookings", listMyBookingsHandler(cfg.Booking))
		r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Booking))
	})
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RolePatient, identity.RoleDoctor, identity.RoleAdmin))
		r.Get("/bookings/{id}", getBookingHandler(cfg.Booking))
	})
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RoleDoctor))
		r.Post("/bookings/{id}/complete", completeBookingHandler(cfg.Booking))
		r.Post("/bookings/{id}/prescription", attachPrescriptionHandler(cfg.Booking))
	})

	// Payment gateway callback
	r.Post("/webhooks/payment", paymentWebhookHandler(cfg.Booking))

	// Signup and admin review
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, time.Minute))
		r.Post("/signup/doctor", submitDoctorSignupHandler(cfg.Signup))
		r.Post("/signup/hospital", submitHospitalSignupHandler(cfg.Signup))
	})
	r.Get("/signup/requests/{requestID}", getSignupStatusHandler(cfg.Signup))

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RoleAdmin))
		r.Get("/admin/requests", listPendingRequestsHandler(cfg.Signup))
		r.Post("/admin/requests/{requestID}/approve", approveRequestHandler(cfg.Signup))
		r.Post("/admin/requests/{requestID}/reject", rejectRequestHandler(cfg.Signup))
	})

	// Hospital service records
	r.Get("/hospitals/{hospitalID}/roster", getRosterHandler(cfg.AccountRepo))
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RoleHospital, identity.RoleAdmin))
		r.Post("/hospitals/{hospitalID}/roster", addRosterEntryHandler(cfg.Account))
		r.Put("/hospitals/{hospitalID}/beds", updateBedAvailabilityHandler(cfg.Account))
		r.Put("/hospitals/{hospitalID}/emergency", setEmergencyStatusHandler(cfg.Account))
	})

	// AI assistant pass-through
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(cfg.Verifier, identity.RolePatient, identity.RoleDoctor, identity.RoleHospital, identity.RoleAdmin))
		r.Post("/assistant/{service}", submitAssistantJobHandler(cfg.Assistants))
		r.Get("/assistant/{service}/jobs/{jobID}", pollAssistantJobHandler(cfg.Assistants))
	})

	return r
}
