package policy

import (
	"testing"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthorize(t *testing.T) {
	p := New(Paths{Login: "/users/login", Listing: "/achievements"})

	owner := Actor{UserID: primitive.NewObjectID(), Email: "rob@email.com"}
	stranger := Actor{UserID: primitive.NewObjectID(), Email: "albert@email.com"}
	anon := Anonymous()

	mine := &models.Achievement{ID: primitive.NewObjectID(), Title: "Read a book", UserID: owner.UserID, Privacy: models.PrivacyPublic}
	hidden := &models.Achievement{ID: primitive.NewObjectID(), Title: "Secret", UserID: owner.UserID, Privacy: models.PrivacyPrivate}

	tests := []struct {
		name     string
		actor    Actor
		action   Action
		target   *models.Achievement
		allowed  bool
		redirect string
	}{
		{"anonymous index", anon, ActionIndex, nil, true, ""},
		{"anonymous show public", anon, ActionShow, mine, true, ""},
		{"anonymous show private", anon, ActionShow, hidden, true, ""},
		{"anonymous new", anon, ActionNew, nil, false, "/users/login"},
		{"anonymous create", anon, ActionCreate, nil, false, "/users/login"},
		{"anonymous edit", anon, ActionEdit, mine, false, "/users/login"},
		{"anonymous update", anon, ActionUpdate, mine, false, "/users/login"},
		{"anonymous destroy", anon, ActionDestroy, mine, false, "/users/login"},
		{"stranger index", stranger, ActionIndex, nil, true, ""},
		{"stranger show", stranger, ActionShow, mine, true, ""},
		{"stranger new", stranger, ActionNew, nil, true, ""},
		{"stranger create", stranger, ActionCreate, nil, true, ""},
		{"stranger edit", stranger, ActionEdit, mine, false, "/achievements"},
		{"stranger update", stranger, ActionUpdate, mine, false, "/achievements"},
		{"stranger destroy", stranger, ActionDestroy, mine, false, "/achievements"},
		{"owner edit", owner, ActionEdit, mine, true, ""},
		{"owner update", owner, ActionUpdate, mine, true, ""},
		{"owner destroy private", owner, ActionDestroy, hidden, true, ""},
		{"owner update without target", owner, ActionUpdate, nil, false, "/achievements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Authorize(tt.actor, tt.action, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}

func TestDefaultsAndVisibility(t *testing.T) {
	p := New(Paths{})
	assert.Equal(t, Paths{Login: "/users/login", Listing: "/achievements"}, p.Paths())

	assert.True(t, p.Visible(&models.Achievement{Privacy: models.PrivacyPublic}))
	assert.False(t, p.Visible(&models.Achievement{Privacy: models.PrivacyPrivate}))
	assert.False(t, p.Visible(&models.Achievement{Privacy: models.PrivacyFriends}))
	assert.False(t, p.Visible(nil))
}
