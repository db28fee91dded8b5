// Package profile holds the business rules for user active game profiles: it forwards
// controller input to the persistence gateway and turns empty searches into
// PROFILE_NOT_FOUND. Gateway failures are returned unchanged.
package profile

import (
	"context"
	"log/slog"

	"github.com/rpattn/activegames/internal/domain"
	"github.com/rpattn/activegames/internal/logging"
	"github.com/rpattn/activegames/internal/repository"
)

// Service coordinates profile CRUD over a gateway for one model kind.
type Service struct {
	repo   repository.ProfileRepository
	kind   domain.ModelKind
	logger *slog.Logger
}

// NewService creates a profile service.
func NewService(repo repository.ProfileRepository, kind domain.ModelKind, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, kind: kind, logger: logger}
}

// Create stores the given records as they are.
func (s *Service) Create(ctx context.Context, records []domain.ProfileRecord) (repository.CreateResult, error) {
	return s.repo.Create(ctx, s.kind, records)
}

// Search returns every record matching query, failing with ErrProfileNotFound when
// there are none.
func (s *Service) Search(ctx context.Context, query domain.Query) ([]domain.ProfileRecord, error) {
	clauses := domain.NormalizeFilter(query)
	s.log(ctx).Debug("searching profiles", slog.Int(logging.FieldClauses, len(clauses)))

	records, err := s.repo.SearchAny(ctx, s.kind, clauses)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.log(ctx).Info("no profiles matched search")
		return nil, domain.ErrProfileNotFound
	}
	return records, nil
}

// Update applies patch to every record matching query. Matching nothing is not an error.
func (s *Service) Update(ctx context.Context, patch domain.ProfileRecord, query domain.Query) (repository.UpdateResult, error) {
	clauses := domain.NormalizeFilter(query)
	s.log(ctx).Debug("updating profiles", slog.Int(logging.FieldClauses, len(clauses)))
	return s.repo.UpdateAny(ctx, s.kind, clauses, patch)
}

// Remove deletes every record matching query. Deleting nothing still succeeds.
func (s *Service) Remove(ctx context.Context, query domain.Query) (repository.DeleteResult, error) {
	clauses := domain.NormalizeFilter(query)
	s.log(ctx).Debug("removing profiles", slog.Int(logging.FieldClauses, len(clauses)))
	return s.repo.DeleteAny(ctx, s.kind, clauses)
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger).With(slog.String(logging.FieldModelKind, string(s.kind)))
}
