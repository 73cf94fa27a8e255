package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimiddleware.StripSlashes)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/login/google", s.handleGoogleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/users/me", s.handleMe)
		r.Put("/users/profile", s.handleUpdateProfile)
		r.Delete("/users/me", s.handleDeleteMe)

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", s.handleCreateTodo)
			r.Get("/", s.handleListTodos)
			r.Put("/{id}", s.handleUpdateTodo)
			r.Delete("/{id}", s.handleDeleteTodo)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, &APIError{Detail: "Method Not Allowed", Code: "method_not_allowed"})
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to the Todo API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
