package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/services"
	"github.com/Dias221467/achievements/internal/storage"
	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20

// AchievementHandler handles the achievement HTTP endpoints.
type AchievementHandler struct {
	Service     *services.AchievementService
	ListingPath string
}

// NewAchievementHandler creates a new AchievementHandler. Successful deletes
// redirect to listingPath.
func NewAchievementHandler(service *services.AchievementService, listingPath string) *AchievementHandler {
	return &AchievementHandler{Service: service, ListingPath: listingPath}
}

// achievementView is the JSON shape of a single achievement.
type achievementView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DescriptionHTML string         `json:"description_html"`
	CoverImage      string         `json:"cover_image,omitempty"`
	CoverImageURL   string         `json:"cover_image_url,omitempty"`
	Privacy         models.Privacy `json:"privacy"`
	UserID          string         `json:"user_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (h *AchievementHandler) view(a *models.Achievement) achievementView {
	html, err := h.Service.RenderDescription(a)
	if err != nil {
		logrus.WithError(err).WithField("achievementID", a.ID.Hex()).Warn("Failed to render description")
	}

	v := achievementView{
		Title:           a.Title,
		Description:     a.Description,
		DescriptionHTML: html,
		CoverImage:      a.CoverImage,
		CoverImageURL:   h.Service.CoverURL(a),
		Privacy:         a.Privacy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if !a.ID.IsZero() {
		v.ID = a.ID.Hex()
	}
	if !a.UserID.IsZero() {
		v.UserID = a.UserID.Hex()
	}
	return v
}

func (h *AchievementHandler) views(list []models.Achievement) []achievementView {
	out := make([]achievementView, 0, len(list))
	for i := range list {
		out = append(out, h.view(&list[i]))
	}
	return out
}

// GetAchievementsHandler lists the public achievements.
func (h *AchievementHandler) GetAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), actorFromRequest(r))
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": h.views(list)})
}

// GetAchievementsByLetterHandler lists public achievements whose title
// starts with the letter in the path.
func (h *AchievementHandler) GetAchievementsByLetterHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ByLetter(r.Context(), mux.Vars(r)["letter"])
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}

	public := make([]models.Achievement, 0, len(list))
	for _, a := range list {
		if a.IsPublic() {
			public = append(public, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": h.views(public)})
}

// NewAchievementFormHandler returns the blank form payload.
func (h *AchievementHandler) NewAchievementFormHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.New(actorFromRequest(r))
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievement": h.view(a)})
}

// CreateAchievementHandler accepts JSON, or a multipart form with an
// optional cover_image file.
func (h *AchievementHandler) CreateAchievementHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if !actor.Authenticated() {
		// skip body parsing; the service decides where to send the client
		_, err := h.Service.Create(r.Context(), actor, models.AchievementAttrs{}, nil)
		respondError(w, r, err, "", nil)
		return
	}

	attrs, cover, err := decodeAchievementRequest(w, r)
	if err != nil {
		logrus.WithError(err).Warn("Failed to decode achievement request")
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Message)
		return
	}

	created, err := h.Service.Create(r.Context(), actor, attrs, cover)
	if err != nil {
		respondError(w, r, err, "achievement", attrs)
		return
	}

	w.Header().Set("Location", "/achievements/"+created.ID.Hex())
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Achievement has been created",
		"achievement": h.view(created),
	})
}

// GetAchievementHandler shows one achievement.
func (h *AchievementHandler) GetAchievementHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Read(r.Context(), actorFromRequest(r), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievement": h.view(a)})
}

// EditAchievementHandler returns the owner's edit form payload.
func (h *AchievementHandler) EditAchievementHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Edit(r.Context(), actorFromRequest(r), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievement": h.view(a)})
}

// UpdateAchievementHandler applies a partial update.
func (h *AchievementHandler) UpdateAchievementHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	id := mux.Vars(r)["id"]

	var attrs models.AchievementAttrs
	if actor.Authenticated() {
		if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
			logrus.WithError(err).Warn("Failed to decode achievement update")
			writeError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Message)
			return
		}
	}

	updated, err := h.Service.Update(r.Context(), actor, id, attrs)
	if err != nil {
		respondError(w, r, err, "achievement", attrs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Achievement has been updated",
		"achievement": h.view(updated),
	})
}

// UploadCoverHandler replaces the cover image.
func (h *AchievementHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	id := mux.Vars(r)["id"]

	var cover *storage.Upload
	if actor.Authenticated() {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "File too big or invalid format")
			return
		}
		up, err := formUpload(r, "cover_image", "file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid file in request")
			return
		}
		cover = up
	}

	updated, err := h.Service.AttachCover(r.Context(), actor, id, cover)
	if err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievement": h.view(updated)})
}

// DeleteAchievementHandler destroys an achievement and sends the client to
// the listing.
func (h *AchievementHandler) DeleteAchievementHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Destroy(r.Context(), actorFromRequest(r), mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "", nil)
		return
	}
	http.Redirect(w, r, h.ListingPath, http.StatusSeeOther)
}

func decodeAchievementRequest(w http.ResponseWriter, r *http.Request) (models.AchievementAttrs, *storage.Upload, error) {
	var attrs models.AchievementAttrs

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := json.NewDecoder(r.Body).Decode(&attrs)
		return attrs, nil, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return attrs, nil, err
	}

	if vals, ok := r.MultipartForm.Value["title"]; ok && len(vals) > 0 {
		attrs.Title = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["description"]; ok && len(vals) > 0 {
		attrs.Description = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["privacy"]; ok && len(vals) > 0 {
		var p models.Privacy
		if err := p.UnmarshalText([]byte(vals[0])); err != nil {
			return attrs, nil, err
		}
		attrs.Privacy = &p
	}

	cover, err := formUpload(r, "cover_image")
	if err != nil {
		return attrs, nil, err
	}
	return attrs, cover, nil
}

// formUpload returns the first file found under one of fields, or nil when
// none was sent. The file is read into memory; uploads are capped by
// maxUploadSize.
func formUpload(r *http.Request, fields ...string) (*storage.Upload, error) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return readUpload(file, header)
	}
	return nil, nil
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*storage.Upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	}, nil
}
