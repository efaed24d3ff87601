package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/issue-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"gorm.io/gorm"
)

var (
	ErrUnknownReference = apierrors.New(apierrors.KindBadRequest, "a referenced type, priority, product, role or user does not exist")
	ErrDuplicate        = apierrors.New(apierrors.KindConflict, "resource already exists")
)

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// authorize runs the evaluator and counts denials.
func authorize(m *metrics.Metrics, p authz.Principal, action authz.Action, snapshot *authz.Snapshot) error {
	d := authz.Authorize(p, action, snapshot)
	if !d.Allowed {
		m.ObserveDenial(string(action), d.Reason)
		return d.Err()
	}
	return nil
}

// coarse applies only the minimum-role gate of action, before any row is
// loaded or locked.
func coarse(m *metrics.Metrics, p authz.Principal, action authz.Action) error {
	resource, op, ok := authz.Gate(action)
	if !ok {
		return authz.Decision{Reason: authz.ReasonUnknownAction}.Err()
	}
	d := authz.CoarseCheck(p, resource, op)
	if !d.Allowed {
		m.ObserveDenial(string(action), d.Reason)
		return d.Err()
	}
	return nil
}

// translate maps storage errors to domain errors. notFound is used for a
// missing row; errors that already carry a kind pass through.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrUnknownReference
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// fail translates err and wraps anything left without a kind as an
// internal failure of op.
func fail(err error, notFound error, op string) error {
	mapped := translate(err, notFound)
	if apierrors.KindOf(mapped) != apierrors.KindInternal {
		return mapped
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
