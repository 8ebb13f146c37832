package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/achievements/internal/policy"
	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/Dias221467/achievements/pkg/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError maps a service error onto the response. Validation failures
// echo the submitted data back under key so the form can be re-rendered.
func respondError(w http.ResponseWriter, r *http.Request, err error, key string, submitted interface{}) {
	var (
		verr   *apperrors.ValidationError
		denied *apperrors.NotAuthorizedError
		appErr *apperrors.AppError
	)

	switch {
	case errors.As(err, &verr):
		body := map[string]interface{}{"errors": verr.Fields}
		if key != "" {
			body[key] = submitted
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.As(err, &denied):
		http.Redirect(w, r, denied.Redirect, http.StatusFound)
	case errors.As(err, &appErr):
		writeError(w, appErr.Code, appErr.Message)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, apperrors.ErrInternalServer.Message)
	}
}

// actorFromRequest returns the authenticated actor, or anonymous when the
// request carries no usable token.
func actorFromRequest(r *http.Request) policy.Actor {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return policy.Anonymous()
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return policy.Anonymous()
	}
	return policy.Actor{UserID: id, Email: claims.Email}
}
