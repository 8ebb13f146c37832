// Package postgres holds the PostgreSQL stores. ObjectIDs are stored as their
// 24 character hex form so ids stay interchangeable with the Mongo stores.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uniqueViolation = "23505"

const achievementColumns = `id, title, description, cover_image, privacy, user_id, created_at, updated_at`

type achievementRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	CoverImage  sql.NullString `db:"cover_image"`
	Privacy     string         `db:"privacy"`
	UserID      string         `db:"user_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row achievementRow) toModel() (models.Achievement, error) {
	id, err := primitive.ObjectIDFromHex(row.ID)
	if err != nil {
		return models.Achievement{}, fmt.Errorf("invalid achievement id %q: %w", row.ID, err)
	}
	owner, err := primitive.ObjectIDFromHex(row.UserID)
	if err != nil {
		return models.Achievement{}, fmt.Errorf("invalid user id %q: %w", row.UserID, err)
	}
	return models.Achievement{
		ID:          id,
		Title:       row.Title,
		Description: row.Description,
		CoverImage:  row.CoverImage.String,
		Privacy:     models.Privacy(row.Privacy),
		UserID:      owner,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func toRows(rows []achievementRow) ([]models.Achievement, error) {
	out := make([]models.Achievement, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// AchievementRepository is the PostgreSQL AchievementStore. The
// achievements_user_title_key constraint backs title uniqueness.
type AchievementRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *AchievementRepository) CreateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	if achievement.ID.IsZero() {
		achievement.ID = primitive.NewObjectID()
	}
	now := r.now()
	achievement.CreatedAt = now
	achievement.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO achievements (`+achievementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		achievement.ID.Hex(), achievement.Title, achievement.Description, nullString(achievement.CoverImage),
		string(achievement.Privacy), achievement.UserID.Hex(), achievement.CreatedAt, achievement.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateTitle
		}
		logrus.WithError(err).Error("Failed to insert achievement into database")
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}
	return achievement, nil
}

func (r *AchievementRepository) GetAchievementByID(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	var row achievementRow
	err := r.db.GetContext(ctx, &row, `SELECT `+achievementColumns+` FROM achievements WHERE id = $1`, id.Hex())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	a, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAchievement locks the row, then writes every editable field in the
// same transaction.
func (r *AchievementRepository) UpdateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked achievementRow
	err = tx.GetContext(ctx, &locked, `SELECT `+achievementColumns+` FROM achievements WHERE id = $1 FOR UPDATE`, achievement.ID.Hex())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock achievement: %w", err)
	}

	var updated achievementRow
	err = tx.GetContext(ctx, &updated, `
		UPDATE achievements
		SET title = $2, description = $3, cover_image = $4, privacy = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+achievementColumns,
		achievement.ID.Hex(), achievement.Title, achievement.Description, nullString(achievement.CoverImage),
		string(achievement.Privacy), r.now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateTitle
		}
		logrus.WithError(err).Error("Failed to update achievement")
		return nil, fmt.Errorf("failed to update achievement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit achievement update: %w", err)
	}

	a, err := updated.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AchievementRepository) DeleteAchievement(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM achievements WHERE id = $1`, id.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AchievementRepository) AchievementTitleTaken(ctx context.Context, owner primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error) {
	excludeID := ""
	if !exclude.IsZero() {
		excludeID = exclude.Hex()
	}

	var taken bool
	err := r.db.GetContext(ctx, &taken, `
		SELECT EXISTS (
			SELECT 1 FROM achievements WHERE user_id = $1 AND title = $2 AND id <> $3
		)`, owner.Hex(), title, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement title: %w", err)
	}
	return taken, nil
}

func (r *AchievementRepository) GetAchievementsByPrivacy(ctx context.Context, privacy models.Privacy) ([]models.Achievement, error) {
	var rows []achievementRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+achievementColumns+` FROM achievements
		WHERE privacy = $1
		ORDER BY created_at ASC, id ASC`, string(privacy))
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return toRows(rows)
}

// GetAchievementsByTitlePrefix sorts by owner email then title in byte order.
func (r *AchievementRepository) GetAchievementsByTitlePrefix(ctx context.Context, prefix string) ([]models.Achievement, error) {
	var rows []achievementRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.title, a.description, a.cover_image, a.privacy, a.user_id, a.created_at, a.updated_at
		FROM achievements a
		JOIN users u ON u.id = a.user_id
		WHERE left(a.title, char_length($1)) = $1
		ORDER BY u.email COLLATE "C" ASC, a.title COLLATE "C" ASC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements by title: %w", err)
	}
	return toRows(rows)
}
