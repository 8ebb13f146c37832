package models

import (
	"strings"
	"time"

	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/Dias221467/achievements/pkg/markdown"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Privacy is the visibility level of an achievement.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
	PrivacyFriends Privacy = "friends"
)

// Validation messages shared by every store.
const (
	MsgBlank          = "can't be blank"
	MsgDuplicateTitle = "you can't have two achievements with the same title"
	MsgMustExist      = "must exist"
	MsgNotIncluded    = "is not included in the list"
)

var privacyAliases = map[string]Privacy{
	"public":         PrivacyPublic,
	"public_access":  PrivacyPublic,
	"private":        PrivacyPrivate,
	"private_access": PrivacyPrivate,
	"friends":        PrivacyFriends,
	"friends_access": PrivacyFriends,
	"friends-only":   PrivacyFriends,
	"friends_only":   PrivacyFriends,
}

// Valid reports whether p is one of the known levels.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyFriends:
		return true
	}
	return false
}

// UnmarshalText accepts the short names, the *_access aliases and
// friends-only. Unknown values are kept as-is so that validation can report
// them.
func (p *Privacy) UnmarshalText(text []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(text)))
	if known, ok := privacyAliases[raw]; ok {
		*p = known
		return nil
	}
	*p = Privacy(raw)
	return nil
}

// Achievement is a personal accomplishment recorded by its owner.
type Achievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	CoverImage  string             `bson:"cover_image,omitempty" json:"cover_image,omitempty"`
	Privacy     Privacy            `bson:"privacy" json:"privacy"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the rules that need no store access. Title uniqueness per
// owner is checked by the service and enforced by the store.
func (a *Achievement) Validate() *apperrors.ValidationError {
	verr := apperrors.NewValidationError()
	if strings.TrimSpace(a.Title) == "" {
		verr.Add("title", MsgBlank)
	}
	if a.UserID.IsZero() {
		verr.Add("user", MsgMustExist)
	}
	if !a.Privacy.Valid() {
		verr.Add("privacy", MsgNotIncluded)
	}
	return verr
}

// DescriptionHTML renders the markdown description.
func (a *Achievement) DescriptionHTML(r markdown.Renderer) (string, error) {
	return r.Render(a.Description)
}

// SillyTitle is the title signed with the owner's email.
func (a *Achievement) SillyTitle(owner *User) string {
	return a.Title + " by " + owner.Email
}

// IsPublic reports whether the achievement may appear in public listings.
func (a *Achievement) IsPublic() bool {
	return a.Privacy == PrivacyPublic
}

// OwnedBy reports whether userID owns the achievement.
func (a *Achievement) OwnedBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && a.UserID == userID
}

// AchievementAttrs are the user-editable fields of a create or update
// request. Nil fields are left untouched. The cover image is only set by an
// upload.
type AchievementAttrs struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Privacy     *Privacy `json:"privacy"`
}

// Apply copies the set fields onto a.
func (attrs AchievementAttrs) Apply(a *Achievement) {
	if attrs.Title != nil {
		a.Title = *attrs.Title
	}
	if attrs.Description != nil {
		a.Description = *attrs.Description
	}
	if attrs.Privacy != nil {
		a.Privacy = *attrs.Privacy
	}
}
