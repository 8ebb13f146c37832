// Package policy decides who may do what to an achievement. A denial is a
// value carrying the page the requester should be redirected to.
package policy

import (
	"github.com/Dias221467/achievements/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ActionIndex   Action = "index"
	ActionShow    Action = "show"
	ActionNew     Action = "new"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
)

// ownerOnly lists the actions that need the actor to own the target.
var ownerOnly = map[Action]bool{
	ActionEdit:    true,
	ActionUpdate:  true,
	ActionDestroy: true,
}

// Actor is the requester. The zero value is anonymous.
type Actor struct {
	UserID primitive.ObjectID
	Email  string
}

func Anonymous() Actor { return Actor{} }

func (a Actor) Authenticated() bool { return !a.UserID.IsZero() }

// Paths are the redirect targets used for denials.
type Paths struct {
	Login   string
	Listing string
}

type Decision struct {
	Allowed  bool
	Redirect string
}

type Policy struct {
	paths Paths
}

func New(paths Paths) *Policy {
	if paths.Login == "" {
		paths.Login = "/users/login"
	}
	if paths.Listing == "" {
		paths.Listing = "/achievements"
	}
	return &Policy{paths: paths}
}

func (p *Policy) Paths() Paths { return p.paths }

// Authorize evaluates action for actor. target may be nil for actions that
// do not address a single achievement; an owner-only action without a
// target is denied.
func (p *Policy) Authorize(actor Actor, action Action, target *models.Achievement) Decision {
	switch action {
	case ActionIndex, ActionShow:
		return allow()
	}

	if !actor.Authenticated() {
		return p.deny(p.paths.Login)
	}

	if !ownerOnly[action] {
		if action == ActionNew || action == ActionCreate {
			return allow()
		}
		return p.deny(p.paths.Listing)
	}

	if target == nil || !target.OwnedBy(actor.UserID) {
		return p.deny(p.paths.Listing)
	}
	return allow()
}

// Visible reports whether an achievement may appear in the index listing.
// Only public entries are listed, whoever is asking.
func (p *Policy) Visible(a *models.Achievement) bool {
	return a != nil && a.IsPublic()
}

func allow() Decision { return Decision{Allowed: true} }

func (p *Policy) deny(to string) Decision { return Decision{Redirect: to} }
