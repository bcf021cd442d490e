package shared

import (
	"context"
	"fmt"
)

// Role identifies the kind of actor behind an action.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleDriver Role = "driver"
	RoleSystem Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleVendor, RoleDriver, RoleSystem:
		return true
	}
	return false
}

// Actor is the caller identity attached to every lifecycle action.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by background jobs.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Validate checks the actor carries an id and a known role.
func (a Actor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: actor id required", ErrUnauthorized)
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: unknown actor role %q", ErrUnauthorized, a.Role)
	}
	return nil
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
