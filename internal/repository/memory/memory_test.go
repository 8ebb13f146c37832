package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConcurrentDuplicateCreatesOnlyOneWins(t *testing.T) {
	store := NewStore()
	owner := primitive.NewObjectID()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateAchievement(context.Background(), &models.Achievement{
				Title: "X", UserID: owner, Privacy: models.PrivacyPublic,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, repository.ErrDuplicateTitle):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, dup)
}

func TestUpdateKeepsStateOnDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	owner := primitive.NewObjectID()

	_, err := store.CreateAchievement(ctx, &models.Achievement{Title: "A", UserID: owner, Privacy: models.PrivacyPublic})
	require.NoError(t, err)
	b, err := store.CreateAchievement(ctx, &models.Achievement{Title: "B", Description: "old", UserID: owner, Privacy: models.PrivacyPublic})
	require.NoError(t, err)

	_, err = store.UpdateAchievement(ctx, &models.Achievement{ID: b.ID, Title: "A", Description: "new"})
	assert.ErrorIs(t, err, repository.ErrDuplicateTitle)

	got, err := store.GetAchievementByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
	assert.Equal(t, "old", got.Description)
}

func TestPrivacyFilterKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	owner := primitive.NewObjectID()

	for _, a := range []models.Achievement{
		{Title: "one", Privacy: models.PrivacyPublic},
		{Title: "two", Privacy: models.PrivacyPrivate},
		{Title: "three", Privacy: models.PrivacyPublic},
	} {
		a := a
		a.UserID = owner
		_, err := store.CreateAchievement(ctx, &a)
		require.NoError(t, err)
	}

	got, err := store.GetAchievementsByPrivacy(ctx, models.PrivacyPublic)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Title)
	assert.Equal(t, "three", got[1].Title)
}

func TestTitlePrefixOrdersByOwnerEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	albert, err := store.CreateUser(ctx, &models.User{Email: "albert@email.com"})
	require.NoError(t, err)
	rob, err := store.CreateUser(ctx, &models.User{Email: "rob@email.com"})
	require.NoError(t, err)

	read, err := store.CreateAchievement(ctx, &models.Achievement{Title: "Read a book", UserID: rob.ID, Privacy: models.PrivacyPublic})
	require.NoError(t, err)
	rocked, err := store.CreateAchievement(ctx, &models.Achievement{Title: "Rocked it", UserID: albert.ID, Privacy: models.PrivacyPublic})
	require.NoError(t, err)
	_, err = store.CreateAchievement(ctx, &models.Achievement{Title: "Passed an exam", UserID: rob.ID, Privacy: models.PrivacyPublic})
	require.NoError(t, err)
	_, err = store.CreateAchievement(ctx, &models.Achievement{Title: "rowed a boat", UserID: rob.ID, Privacy: models.PrivacyPublic})
	require.NoError(t, err)

	got, err := store.GetAchievementsByTitlePrefix(ctx, "R")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rocked.ID, got[0].ID)
	assert.Equal(t, read.ID, got[1].ID)
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a, err := store.CreateAchievement(ctx, &models.Achievement{Title: "gone", UserID: primitive.NewObjectID(), Privacy: models.PrivacyPublic})
	require.NoError(t, err)

	require.NoError(t, store.DeleteAchievement(ctx, a.ID))
	assert.ErrorIs(t, store.DeleteAchievement(ctx, a.ID), repository.ErrNotFound)
	_, err = store.GetAchievementByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.CreateUser(ctx, &models.User{Email: "a@email.com"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &models.User{Email: "a@email.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}
