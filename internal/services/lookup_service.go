package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
)

// LookupService serves the fixed reference tables
type LookupService struct {
	lookupRepo repository.LookupRepository
	metrics    *metrics.Metrics
}

// NewLookupService creates a new LookupService
func NewLookupService(lookupRepo repository.LookupRepository, m *metrics.Metrics) *LookupService {
	return &LookupService{lookupRepo: lookupRepo, metrics: m}
}

func (s *LookupService) Statuses(ctx context.Context, p authz.Principal) ([]models.Status, error) {
	return lookup(ctx, s, p, authz.LookupStatuses, "statuses", s.lookupRepo.Statuses)
}

func (s *LookupService) Priorities(ctx context.Context, p authz.Principal) ([]models.Priority, error) {
	return lookup(ctx, s, p, authz.LookupPriorities, "priorities", s.lookupRepo.Priorities)
}

func (s *LookupService) Types(ctx context.Context, p authz.Principal) ([]models.IssueType, error) {
	return lookup(ctx, s, p, authz.LookupTypes, "types", s.lookupRepo.Types)
}

func (s *LookupService) Roles(ctx context.Context, p authz.Principal) ([]models.Role, error) {
	return lookup(ctx, s, p, authz.LookupRoles, "roles", s.lookupRepo.Roles)
}

func lookup[T any](ctx context.Context, s *LookupService, p authz.Principal, action authz.Action, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	if err := authorize(s.metrics, p, action, nil); err != nil {
		return nil, err
	}
	rows, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}
	return rows, nil
}
