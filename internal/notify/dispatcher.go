// Package notify tells the outside world about new achievements: an email
// to the owner and a public status post. Both are best effort.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	ChannelEmail = "email"
	ChannelPost  = "post"

	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// CreatedSubject is the subject line of the creation email.
const CreatedSubject = "Achievement has been created"

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Poster interface {
	Post(ctx context.Context, text string) (string, error)
}

type Recorder interface {
	RecordNotification(channel, outcome string)
}

// Dispatcher runs notifications on background goroutines. A nil Mailer or
// Poster disables that channel.
type Dispatcher struct {
	mailer   Mailer
	poster   Poster
	recorder Recorder
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(mailer Mailer, poster Poster, recorder Recorder, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{mailer: mailer, poster: poster, recorder: recorder, timeout: timeout}
}

// AchievementCreated queues both notifications and returns immediately.
func (d *Dispatcher) AchievementCreated(owner *models.User, a *models.Achievement) {
	if d == nil || owner == nil || a == nil {
		return
	}

	to := owner.Email
	title := a.Title
	id := a.ID.Hex()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.sendEmail(id, to, title)
	}()
	go func() {
		defer d.wg.Done()
		d.post(id, title)
	}()
}

// Wait blocks until every queued notification has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) sendEmail(id, to, title string) {
	log := logrus.WithFields(logrus.Fields{"achievementID": id, "to": to})
	if d.mailer == nil || to == "" {
		d.record(ChannelEmail, OutcomeSkipped)
		return
	}

	body := fmt.Sprintf("Your achievement %q has been created.", title)
	if err := d.mailer.SendEmail(to, CreatedSubject, body); err != nil {
		log.WithError(err).Error("Failed to send achievement email")
		d.record(ChannelEmail, OutcomeFailed)
		return
	}
	log.Info("Achievement email sent")
	d.record(ChannelEmail, OutcomeSent)
}

func (d *Dispatcher) post(id, title string) {
	log := logrus.WithField("achievementID", id)
	if d.poster == nil {
		d.record(ChannelPost, OutcomeSkipped)
		return
	}

	// detached from the request; it has usually finished by now
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	url, err := d.poster.Post(ctx, PostText(title))
	if err != nil {
		log.WithError(err).Error("Failed to post achievement status")
		d.record(ChannelPost, OutcomeFailed)
		return
	}
	log.WithField("url", url).Info("We tweeted for you!")
	d.record(ChannelPost, OutcomeSent)
}

// PostText is the status text published for a new achievement.
func PostText(title string) string {
	return "New achievement: " + title
}

func (d *Dispatcher) record(channel, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(channel, outcome)
	}
}
