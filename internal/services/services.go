// Package services applies permission and validation rules around the
// stores and records the audit trail of asset changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
)

// Authorizer decides whether actor may perform action on a resource.
// Refusals wrap apperr.ErrPermissionDenied.
type Authorizer interface {
	Authorize(ctx context.Context, actor *models.User, action gate.Action, resourceType string, target any) error
	InvalidateUser(userID uint)
	InvalidateAll()
}

func actorID(actor *models.User) *uint {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

func actorName(actor *models.User) string {
	if actor == nil {
		return "system"
	}
	return actor.Username
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperr.ErrValidation}, args...)...)
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperr.ErrPermissionDenied}, args...)...)
}

// tolerateNoOp treats an update that touched no rows as success.
func tolerateNoOp(op string, err error) error {
	if errors.Is(err, apperr.ErrNoOp) {
		log.Printf("[Service] %s: no rows changed", op)
		return nil
	}
	return err
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, kind, id)
}
