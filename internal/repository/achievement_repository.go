package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AchievementRepository is the MongoDB AchievementStore.
type AchievementRepository struct {
	collection *mongo.Collection
	users      string
}

func NewAchievementRepository(db *mongo.Database) *AchievementRepository {
	return &AchievementRepository{
		collection: db.Collection("achievements"),
		users:      "users",
	}
}

// EnsureIndexes creates the unique (user_id, title) index the store relies on
// to reject duplicate titles.
func (r *AchievementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_title_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create achievement indexes: %w", err)
	}
	return nil
}

func (r *AchievementRepository) CreateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	now := time.Now().UTC()
	if achievement.ID.IsZero() {
		achievement.ID = primitive.NewObjectID()
	}
	achievement.CreatedAt = now
	achievement.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, achievement); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateTitle
		}
		logrus.WithError(err).Error("Failed to insert achievement into database")
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	logrus.WithField("achievementID", achievement.ID.Hex()).Info("Achievement inserted successfully")
	return achievement, nil
}

func (r *AchievementRepository) GetAchievementByID(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&achievement); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return &achievement, nil
}

func (r *AchievementRepository) UpdateAchievement(ctx context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	update := bson.M{
		"title":       achievement.Title,
		"description": achievement.Description,
		"cover_image": achievement.CoverImage,
		"privacy":     achievement.Privacy,
		"updated_at":  time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Achievement
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": achievement.ID}, bson.M{"$set": update}, opts).Decode(&updated)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicateTitle
		}
		logrus.WithError(err).Error("Failed to update achievement and return updated object")
		return nil, fmt.Errorf("failed to update achievement: %w", err)
	}
	return &updated, nil
}

func (r *AchievementRepository) DeleteAchievement(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AchievementRepository) AchievementTitleTaken(ctx context.Context, owner primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"user_id": owner, "title": title}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check achievement title: %w", err)
	}
	return n > 0, nil
}

func (r *AchievementRepository) GetAchievementsByPrivacy(ctx context.Context, privacy models.Privacy) ([]models.Achievement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"privacy": privacy}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	if err := cursor.All(ctx, &achievements); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	return achievements, nil
}

func (r *AchievementRepository) GetAchievementsByTitlePrefix(ctx context.Context, prefix string) ([]models.Achievement, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"title": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.users,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: "$owner"}},
		{{Key: "$sort", Value: bson.D{{Key: "owner.email", Value: 1}, {Key: "title", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"owner": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements by title: %w", err)
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	for cursor.Next(ctx) {
		var achievement models.Achievement
		if err := cursor.Decode(&achievement); err != nil {
			return nil, fmt.Errorf("failed to decode achievement: %w", err)
		}
		achievements = append(achievements, achievement)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}
	return achievements, nil
}
