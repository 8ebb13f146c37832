package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/services"
	"github.com/sirupsen/logrus"
)

// JSONAPIContentType is the media type of JSON:API documents.
const JSONAPIContentType = "application/vnd.api+json"

const achievementResourceType = "achievement"

type resourceAttributes struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

type resource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes resourceAttributes `json:"attributes"`
}

type document struct {
	Data []resource `json:"data"`
}

// toResource maps an achievement to its JSON:API resource object.
func toResource(a *models.Achievement) resource {
	return resource{
		ID:   a.ID.Hex(),
		Type: achievementResourceType,
		Attributes: resourceAttributes{
			Title: a.Title,
			Date:  a.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}

// APIHandler serves the read-only JSON:API endpoints.
type APIHandler struct {
	Service *services.AchievementService
}

func NewAPIHandler(service *services.AchievementService) *APIHandler {
	return &APIHandler{Service: service}
}

// GetAchievementsHandler returns the public achievements as a JSON:API
// collection.
func (h *APIHandler) GetAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	logrus.WithField("contentType", r.Header.Get("Content-Type")).Debug("JSON:API achievements requested")

	list, err := h.Service.List(r.Context(), actorFromRequest(r))
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}

	doc := document{Data: make([]resource, 0, len(list))}
	for i := range list {
		doc.Data = append(doc.Data, toResource(&list[i]))
	}

	w.Header().Set("Content-Type", JSONAPIContentType)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		logrus.WithError(err).Warn("Failed to encode JSON:API document")
	}
}
