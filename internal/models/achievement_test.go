package models

import (
	"encoding/json"
	"testing"

	"github.com/Dias221467/achievements/pkg/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateRequiresTitle(t *testing.T) {
	a := &Achievement{Title: "", UserID: primitive.NewObjectID(), Privacy: PrivacyPublic}
	verr := a.Validate()

	assert.False(t, verr.Empty())
	assert.Contains(t, verr.Messages("title"), "can't be blank")
}

func TestValidateTreatsWhitespaceTitleAsBlank(t *testing.T) {
	a := &Achievement{Title: "   ", UserID: primitive.NewObjectID(), Privacy: PrivacyPublic}
	assert.Contains(t, a.Validate().Messages("title"), MsgBlank)
}

func TestValidateRequiresOwner(t *testing.T) {
	a := &Achievement{Title: "some title", Privacy: PrivacyPublic}
	assert.Contains(t, a.Validate().Messages("user"), MsgMustExist)
}

func TestValidateRejectsUnknownPrivacy(t *testing.T) {
	a := &Achievement{Title: "some title", UserID: primitive.NewObjectID(), Privacy: "secret"}
	assert.Contains(t, a.Validate().Messages("privacy"), MsgNotIncluded)
}

func TestValidateAcceptsCompleteAchievement(t *testing.T) {
	a := &Achievement{Title: "Read a book", UserID: primitive.NewObjectID(), Privacy: PrivacyFriends}
	assert.True(t, a.Validate().Empty())
}

func TestPrivacyAcceptsAliases(t *testing.T) {
	var attrs AchievementAttrs
	require.NoError(t, json.Unmarshal([]byte(`{"privacy":"private_access"}`), &attrs))
	require.NotNil(t, attrs.Privacy)
	assert.Equal(t, PrivacyPrivate, *attrs.Privacy)

	require.NoError(t, json.Unmarshal([]byte(`{"privacy":"Friends"}`), &attrs))
	assert.Equal(t, PrivacyFriends, *attrs.Privacy)

	for _, raw := range []string{"friends-only", "friends_only"} {
		require.NoError(t, json.Unmarshal([]byte(`{"privacy":"`+raw+`"}`), &attrs))
		assert.Equal(t, PrivacyFriends, *attrs.Privacy, raw)
	}

	require.NoError(t, json.Unmarshal([]byte(`{"privacy":"nobody"}`), &attrs))
	assert.False(t, attrs.Privacy.Valid())
}

func TestAttrsApplyOnlySetFields(t *testing.T) {
	a := &Achievement{Title: "Old", Description: "keep me", Privacy: PrivacyPublic}
	title := "New Title"
	AchievementAttrs{Title: &title}.Apply(a)

	assert.Equal(t, "New Title", a.Title)
	assert.Equal(t, "keep me", a.Description)
	assert.Equal(t, PrivacyPublic, a.Privacy)
}

func TestDescriptionHTML(t *testing.T) {
	a := &Achievement{Description: "Awesome **thing** I *actually* did"}
	html, err := a.DescriptionHTML(markdown.NewRenderer())
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>thing</strong>")
	assert.Contains(t, html, "<em>actually</em>")
}

func TestSillyTitle(t *testing.T) {
	a := &Achievement{Title: "New Achievement"}
	assert.Equal(t, "New Achievement by test@test.com", a.SillyTitle(&User{Email: "test@test.com"}))
}

func TestOwnedBy(t *testing.T) {
	owner := primitive.NewObjectID()
	a := &Achievement{UserID: owner}

	assert.True(t, a.OwnedBy(owner))
	assert.False(t, a.OwnedBy(primitive.NewObjectID()))
	assert.False(t, a.OwnedBy(primitive.NilObjectID))
}
