package router

import (
	"net/http"

	"github.com/Dias221467/achievements/internal/handlers"
	"github.com/Dias221467/achievements/internal/metrics"
	"github.com/Dias221467/achievements/pkg/middleware"
	"github.com/gorilla/mux"
)

// Deps is everything the router wires into routes.
type Deps struct {
	Achievements *handlers.AchievementHandler
	API          *handlers.APIHandler
	Users        *handlers.UserHandler
	JWTSecret    string
	LoginPath    string
	UploadDir    string // served under /uploads/ when set
	RateLimiter  *middleware.RateLimiter
}

// New builds the HTTP routes.
func New(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.OptionalAuthMiddleware(d.JWTSecret))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)
	if d.RateLimiter != nil {
		router.Use(d.RateLimiter.Handler)
	}

	router.HandleFunc("/", handlers.HomeHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	loginPath := d.LoginPath
	if loginPath == "" {
		loginPath = "/users/login"
	}

	// User routes
	router.HandleFunc("/users/register", d.Users.RegisterUserHandler).Methods("POST")
	router.HandleFunc(loginPath, d.Users.LoginPageHandler).Methods("GET")
	router.HandleFunc(loginPath, d.Users.LoginUserHandler).Methods("POST")
	router.HandleFunc("/users/{id}", d.Users.GetUserHandler).Methods("GET")

	// Achievement routes
	achievements := router.PathPrefix("/achievements").Subrouter()
	achievements.HandleFunc("", d.Achievements.GetAchievementsHandler).Methods("GET")
	achievements.HandleFunc("", d.Achievements.CreateAchievementHandler).Methods("POST")
	achievements.HandleFunc("/new", d.Achievements.NewAchievementFormHandler).Methods("GET")
	achievements.HandleFunc("/letter/{letter}", d.Achievements.GetAchievementsByLetterHandler).Methods("GET")
	achievements.HandleFunc("/{id}", d.Achievements.GetAchievementHandler).Methods("GET")
	achievements.HandleFunc("/{id}/edit", d.Achievements.EditAchievementHandler).Methods("GET")
	achievements.HandleFunc("/{id}", d.Achievements.UpdateAchievementHandler).Methods("PUT", "PATCH")
	achievements.HandleFunc("/{id}", d.Achievements.DeleteAchievementHandler).Methods("DELETE")
	achievements.HandleFunc("/{id}/cover", d.Achievements.UploadCoverHandler).Methods("POST")

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/achievements", d.API.GetAchievementsHandler).Methods("GET")

	if d.UploadDir != "" {
		router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Resource not found"}` + "\n"))
	})

	return router
}
