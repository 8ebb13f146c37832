package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dias221467/achievements/internal/metrics"
	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/policy"
	"github.com/Dias221467/achievements/internal/repository"
	"github.com/Dias221467/achievements/internal/storage"
	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/Dias221467/achievements/pkg/markdown"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MsgUnsupportedImage is reported on cover_image for non JPEG/PNG uploads.
const MsgUnsupportedImage = "must be a JPEG or PNG image"

// Notifier is told about every successfully created achievement.
type Notifier interface {
	AchievementCreated(owner *models.User, achievement *models.Achievement)
}

// AchievementService holds the achievement use cases. Every mutating call
// consults the policy before it touches the store.
type AchievementService struct {
	repo     repository.AchievementStore
	users    repository.UserStore
	policy   *policy.Policy
	images   storage.ImageStore
	renderer markdown.Renderer
	notifier Notifier
}

func NewAchievementService(
	repo repository.AchievementStore,
	users repository.UserStore,
	pol *policy.Policy,
	images storage.ImageStore,
	renderer markdown.Renderer,
	notifier Notifier,
) *AchievementService {
	return &AchievementService{
		repo:     repo,
		users:    users,
		policy:   pol,
		images:   images,
		renderer: renderer,
		notifier: notifier,
	}
}

// New returns the blank form payload for a create.
func (s *AchievementService) New(actor policy.Actor) (*models.Achievement, error) {
	if err := s.authorize(actor, policy.ActionNew, nil); err != nil {
		return nil, err
	}
	return &models.Achievement{Privacy: models.PrivacyPublic, UserID: actor.UserID}, nil
}

// Create stores a new achievement owned by actor. cover is optional; when
// present it is stored and its sanitized filename becomes the cover image
// identifier.
func (s *AchievementService) Create(ctx context.Context, actor policy.Actor, attrs models.AchievementAttrs, cover *storage.Upload) (*models.Achievement, error) {
	if err := s.authorize(actor, policy.ActionCreate, nil); err != nil {
		return nil, err
	}

	owner, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}

	achievement := &models.Achievement{
		ID:      primitive.NewObjectID(),
		Privacy: models.PrivacyPublic,
	}
	if owner != nil {
		achievement.UserID = owner.ID
	}
	attrs.Apply(achievement)
	if cover != nil {
		achievement.CoverImage = storage.SanitizeFilename(cover.Filename, cover.ContentType)
	}

	verr := achievement.Validate()
	if cover != nil && storage.CheckContentType(cover.ContentType) != nil {
		verr.Add("cover_image", MsgUnsupportedImage)
	}
	if err := s.checkTitle(ctx, achievement, primitive.NilObjectID, verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		logrus.WithField("errors", verr.Fields).Info("Rejected invalid achievement")
		return nil, verr
	}

	if cover != nil {
		if err := s.storeCover(ctx, achievement, cover); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.CreateAchievement(ctx, achievement)
	if err != nil {
		if cover != nil {
			s.removeCover(ctx, achievement)
		}
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return nil, duplicateTitle()
		}
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"achievementID": created.ID.Hex(),
		"userID":        created.UserID.Hex(),
	}).Info("Achievement created")
	metrics.RecordAchievementCreated()

	if s.notifier != nil {
		s.notifier.AchievementCreated(owner, created)
	}
	return created, nil
}

// Read returns an achievement by id whatever its privacy.
func (s *AchievementService) Read(ctx context.Context, actor policy.Actor, id string) (*models.Achievement, error) {
	if err := s.authorize(actor, policy.ActionShow, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Edit returns the achievement for the owner's edit form.
func (s *AchievementService) Edit(ctx context.Context, actor policy.Actor, id string) (*models.Achievement, error) {
	return s.loadAuthorized(ctx, actor, policy.ActionEdit, id)
}

// Update merges attrs into the stored achievement. Nothing is written when
// validation fails.
func (s *AchievementService) Update(ctx context.Context, actor policy.Actor, id string, attrs models.AchievementAttrs) (*models.Achievement, error) {
	target, err := s.loadAuthorized(ctx, actor, policy.ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	candidate := *target
	attrs.Apply(&candidate)
	candidate.ID = target.ID
	candidate.UserID = target.UserID

	verr := candidate.Validate()
	if candidate.Title != target.Title {
		if err := s.checkTitle(ctx, &candidate, target.ID, verr); err != nil {
			return nil, err
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	return s.write(ctx, &candidate)
}

// AttachCover replaces the cover image of an achievement owned by actor.
func (s *AchievementService) AttachCover(ctx context.Context, actor policy.Actor, id string, cover *storage.Upload) (*models.Achievement, error) {
	target, err := s.loadAuthorized(ctx, actor, policy.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	if cover == nil {
		verr := apperrors.NewValidationError()
		verr.Add("cover_image", models.MsgBlank)
		return nil, verr
	}
	if storage.CheckContentType(cover.ContentType) != nil {
		verr := apperrors.NewValidationError()
		verr.Add("cover_image", MsgUnsupportedImage)
		return nil, verr
	}

	previous := *target
	candidate := *target
	candidate.CoverImage = storage.SanitizeFilename(cover.Filename, cover.ContentType)

	if err := s.storeCover(ctx, &candidate, cover); err != nil {
		return nil, err
	}

	updated, err := s.write(ctx, &candidate)
	if err != nil {
		if candidate.CoverImage != previous.CoverImage {
			s.removeCover(ctx, &candidate)
		}
		return nil, err
	}
	if previous.CoverImage != "" && previous.CoverImage != updated.CoverImage {
		s.removeCover(ctx, &previous)
	}
	return updated, nil
}

// Destroy permanently removes an achievement owned by actor. Destroying an
// id that no longer exists is ErrNotFound.
func (s *AchievementService) Destroy(ctx context.Context, actor policy.Actor, id string) error {
	target, err := s.loadAuthorized(ctx, actor, policy.ActionDestroy, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAchievement(ctx, target.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	if target.CoverImage != "" {
		s.removeCover(ctx, target)
	}

	logrus.WithField("achievementID", target.ID.Hex()).Info("Achievement deleted")
	return nil
}

// List returns the public achievements in insertion order. Private entries
// are left out even for their owner.
func (s *AchievementService) List(ctx context.Context, actor policy.Actor) ([]models.Achievement, error) {
	if err := s.authorize(actor, policy.ActionIndex, nil); err != nil {
		return nil, err
	}
	return s.ByPrivacy(ctx, models.PrivacyPublic)
}

// ByPrivacy returns the achievements of one privacy level in insertion order.
func (s *AchievementService) ByPrivacy(ctx context.Context, privacy models.Privacy) ([]models.Achievement, error) {
	if !privacy.Valid() {
		verr := apperrors.NewValidationError()
		verr.Add("privacy", models.MsgNotIncluded)
		return nil, verr
	}
	achievements, err := s.repo.GetAchievementsByPrivacy(ctx, privacy)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}

// ByLetter returns achievements whose title starts with the first character
// of letter, ordered by owner email then title.
func (s *AchievementService) ByLetter(ctx context.Context, letter string) ([]models.Achievement, error) {
	if letter == "" {
		verr := apperrors.NewValidationError()
		verr.Add("letter", models.MsgBlank)
		return nil, verr
	}
	_, size := utf8.DecodeRuneInString(letter)
	prefix := letter[:size]

	achievements, err := s.repo.GetAchievementsByTitlePrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	return achievements, nil
}

// RenderDescription renders the markdown description to HTML.
func (s *AchievementService) RenderDescription(a *models.Achievement) (string, error) {
	if s.renderer == nil || strings.TrimSpace(a.Description) == "" {
		return "", nil
	}
	return a.DescriptionHTML(s.renderer)
}

// CoverURL is where the cover image of a is served from, or "".
func (s *AchievementService) CoverURL(a *models.Achievement) string {
	if a.CoverImage == "" {
		return ""
	}
	if s.images == nil {
		return a.CoverImage
	}
	return s.images.URL(coverKey(a))
}

// SillyTitle signs the title with the owner's email.
func (s *AchievementService) SillyTitle(ctx context.Context, a *models.Achievement) (string, error) {
	owner, err := s.users.GetUserByID(ctx, a.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load owner: %w", err)
	}
	return a.SillyTitle(owner), nil
}

func (s *AchievementService) authorize(actor policy.Actor, action policy.Action, target *models.Achievement) error {
	d := s.policy.Authorize(actor, action, target)
	if d.Allowed {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"action":   string(action),
		"userID":   actor.UserID.Hex(),
		"redirect": d.Redirect,
	}).Info("Achievement action denied")
	return &apperrors.NotAuthorizedError{Action: string(action), Redirect: d.Redirect}
}

// loadAuthorized turns anonymous actors away before any store access, then
// loads the target and checks ownership.
func (s *AchievementService) loadAuthorized(ctx context.Context, actor policy.Actor, action policy.Action, id string) (*models.Achievement, error) {
	if !actor.Authenticated() {
		return nil, s.authorize(actor, action, nil)
	}
	target, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, action, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *AchievementService) load(ctx context.Context, id string) (*models.Achievement, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	achievement, err := s.repo.GetAchievementByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load achievement: %w", err)
	}
	return achievement, nil
}

func (s *AchievementService) write(ctx context.Context, candidate *models.Achievement) (*models.Achievement, error) {
	updated, err := s.repo.UpdateAchievement(ctx, candidate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTitle):
			return nil, duplicateTitle()
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update achievement: %w", err)
	}
	logrus.WithField("achievementID", updated.ID.Hex()).Info("Achievement updated")
	return updated, nil
}

// checkTitle adds the duplicate message when owner already uses the title.
// The store's unique index still has the final word.
func (s *AchievementService) checkTitle(ctx context.Context, a *models.Achievement, exclude primitive.ObjectID, verr *apperrors.ValidationError) error {
	if a.UserID.IsZero() || strings.TrimSpace(a.Title) == "" {
		return nil
	}
	taken, err := s.repo.AchievementTitleTaken(ctx, a.UserID, a.Title, exclude)
	if err != nil {
		return fmt.Errorf("failed to check title: %w", err)
	}
	if taken {
		verr.Add("title", models.MsgDuplicateTitle)
	}
	return nil
}

func (s *AchievementService) storeCover(ctx context.Context, a *models.Achievement, cover *storage.Upload) error {
	if s.images == nil {
		return errors.New("image storage is not configured")
	}
	if err := s.images.Store(ctx, coverKey(a), cover); err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			verr := apperrors.NewValidationError()
			verr.Add("cover_image", MsgUnsupportedImage)
			return verr
		}
		return fmt.Errorf("failed to store cover image: %w", err)
	}
	return nil
}

func (s *AchievementService) removeCover(ctx context.Context, a *models.Achievement) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, coverKey(a)); err != nil {
		logrus.WithError(err).WithField("achievementID", a.ID.Hex()).Warn("Failed to remove cover image")
	}
}

func coverKey(a *models.Achievement) string {
	return "achievements/" + a.ID.Hex() + "/" + a.CoverImage
}

func duplicateTitle() *apperrors.ValidationError {
	verr := apperrors.NewValidationError()
	verr.Add("title", models.MsgDuplicateTitle)
	return verr
}
