package repository

import (
	"context"
	"errors"

	"github.com/Dias221467/achievements/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTitle is returned when the (owner, title) pair is taken.
	ErrDuplicateTitle = errors.New("owner already has an achievement with this title")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already in use")
)

// AchievementStore persists achievements. Every implementation must enforce
// (user_id, title) uniqueness itself so that concurrent writers cannot both
// succeed.
type AchievementStore interface {
	CreateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error)
	GetAchievementByID(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error)
	// UpdateAchievement writes the editable fields atomically. Nothing is
	// written when it fails.
	UpdateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error)
	DeleteAchievement(ctx context.Context, id primitive.ObjectID) error
	// AchievementTitleTaken reports whether owner has another achievement
	// titled title. exclude may be the zero ObjectID.
	AchievementTitleTaken(ctx context.Context, owner primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error)
	// GetAchievementsByPrivacy returns matches in insertion order.
	GetAchievementsByPrivacy(ctx context.Context, privacy models.Privacy) ([]models.Achievement, error)
	// GetAchievementsByTitlePrefix returns achievements whose title starts
	// with prefix (case-sensitive), ordered by owner email then title.
	GetAchievementsByTitlePrefix(ctx context.Context, prefix string) ([]models.Achievement, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
