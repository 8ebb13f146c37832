// Package memory provides in-process stores for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store implements repository.AchievementStore and repository.UserStore.
// A single mutex serializes writers, which gives the same uniqueness
// guarantees as a unique index.
type Store struct {
	mu           sync.RWMutex
	achievements map[primitive.ObjectID]*models.Achievement
	order        []primitive.ObjectID
	users        map[primitive.ObjectID]*models.User
	now          func() time.Time
}

var (
	_ repository.AchievementStore = (*Store)(nil)
	_ repository.UserStore        = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		achievements: make(map[primitive.ObjectID]*models.Achievement),
		users:        make(map[primitive.ObjectID]*models.User),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateAchievement(_ context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTakenLocked(achievement.UserID, achievement.Title, primitive.NilObjectID) {
		return nil, repository.ErrDuplicateTitle
	}
	if achievement.ID.IsZero() {
		achievement.ID = primitive.NewObjectID()
	}
	now := s.now()
	achievement.CreatedAt = now
	achievement.UpdatedAt = now

	stored := *achievement
	s.achievements[stored.ID] = &stored
	s.order = append(s.order, stored.ID)

	out := stored
	return &out, nil
}

func (s *Store) GetAchievementByID(_ context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.achievements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (s *Store) UpdateAchievement(_ context.Context, achievement *models.Achievement) (*models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.achievements[achievement.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.titleTakenLocked(stored.UserID, achievement.Title, stored.ID) {
		return nil, repository.ErrDuplicateTitle
	}

	stored.Title = achievement.Title
	stored.Description = achievement.Description
	stored.CoverImage = achievement.CoverImage
	stored.Privacy = achievement.Privacy
	stored.UpdatedAt = s.now()

	out := *stored
	return &out, nil
}

func (s *Store) DeleteAchievement(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.achievements[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.achievements, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) AchievementTitleTaken(_ context.Context, owner primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titleTakenLocked(owner, title, exclude), nil
}

func (s *Store) GetAchievementsByPrivacy(_ context.Context, privacy models.Privacy) ([]models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Achievement{}
	for _, id := range s.order {
		if a := s.achievements[id]; a.Privacy == privacy {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) GetAchievementsByTitlePrefix(_ context.Context, prefix string) ([]models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Achievement{}
	for _, id := range s.order {
		a := s.achievements[id]
		if _, ok := s.users[a.UserID]; !ok {
			continue
		}
		if strings.HasPrefix(a.Title, prefix) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := s.users[out[i].UserID].Email, s.users[out[j].UserID].Email
		if ei != ej {
			return ei < ej
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *Store) titleTakenLocked(owner primitive.ObjectID, title string, exclude primitive.ObjectID) bool {
	for id, a := range s.achievements {
		if id != exclude && a.UserID == owner && a.Title == title {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}
