package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dias221467/achievements/internal/config"
	"github.com/Dias221467/achievements/internal/services"
	"github.com/Dias221467/achievements/pkg/apperrors"
	jwtutil "github.com/Dias221467/achievements/pkg/jwt"
	"github.com/Dias221467/achievements/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode user registration request")
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Message)
		return
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		req.Password = ""
		respondError(w, r, err, "user", req)
		return
	}

	log.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": createdUser.Public()})
}

// LoginPageHandler is where denied anonymous requests are redirected.
func (h *UserHandler) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "You need to sign in before continuing",
		"login":   map[string]string{"method": http.MethodPost, "path": h.Config.LoginPath},
		"fields":  []string{"email", "password"},
	})
}

// LoginUserHandler handles user login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Message)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.WithField("email", credentials.Email).Warn("Authentication failed")
		}
		respondError(w, r, err, "", nil)
		return
	}

	// Generate a JWT token
	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.Config.TokenExpiry),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.Public(),
	})
}

// GetUserHandler returns the public profile of a user.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
}
