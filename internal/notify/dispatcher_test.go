package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sentEmail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to, subject, body})
	return m.err
}

type fakePoster struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (p *fakePoster) Post(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, text)
	if p.err != nil {
		return "", p.err
	}
	return "https://twitter.com/i/web/status/1", nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *fakeRecorder) RecordNotification(channel, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[channel+"/"+outcome]++
}

func fixtures() (*models.User, *models.Achievement) {
	owner := &models.User{ID: primitive.NewObjectID(), Email: "rob@email.com"}
	a := &models.Achievement{ID: primitive.NewObjectID(), Title: "Read a book", UserID: owner.ID}
	return owner, a
}

func TestAchievementCreatedSendsOneOfEach(t *testing.T) {
	mailer, poster, rec := &fakeMailer{}, &fakePoster{}, &fakeRecorder{}
	d := NewDispatcher(mailer, poster, rec, time.Second)

	owner, a := fixtures()
	d.AchievementCreated(owner, a)
	d.Wait()

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "rob@email.com", mailer.sent[0].to)
	assert.Equal(t, CreatedSubject, mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Read a book")

	require.Len(t, poster.posts, 1)
	assert.Contains(t, poster.posts[0], "Read a book")

	assert.Equal(t, 1, rec.counts["email/sent"])
	assert.Equal(t, 1, rec.counts["post/sent"])
}

func TestFailuresAreIndependent(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	poster := &fakePoster{}
	rec := &fakeRecorder{}
	d := NewDispatcher(mailer, poster, rec, time.Second)

	owner, a := fixtures()
	d.AchievementCreated(owner, a)
	d.Wait()

	assert.Len(t, poster.posts, 1)
	assert.Equal(t, 1, rec.counts["email/failed"])
	assert.Equal(t, 1, rec.counts["post/sent"])
}

func TestPostFailureIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(&fakeMailer{}, &fakePoster{err: errors.New("403")}, rec, time.Second)

	owner, a := fixtures()
	d.AchievementCreated(owner, a)
	d.Wait()

	assert.Equal(t, 1, rec.counts["post/failed"])
	assert.Equal(t, 1, rec.counts["email/sent"])
}

func TestDisabledChannelsAreSkipped(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(nil, nil, rec, 0)

	owner, a := fixtures()
	d.AchievementCreated(owner, a)
	d.Wait()

	assert.Equal(t, 1, rec.counts["email/skipped"])
	assert.Equal(t, 1, rec.counts["post/skipped"])
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	owner, a := fixtures()
	assert.NotPanics(t, func() {
		d.AchievementCreated(owner, a)
		d.Wait()
	})
}
