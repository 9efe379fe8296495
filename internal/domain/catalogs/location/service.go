package location

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
)

// Repository defines the interface for location persistence.
type Repository interface {
	domain.CatalogRepository[*Location]
}

// Service provides business logic for the location catalog.
type Service struct {
	*domain.CatalogService[*Location]
}

// NewService creates a new location service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
			Repo:       repo,
			TxManager:  txm,
			EntityName: "location",
		}),
	}
}

// RequireActive loads each location and fails on the first one that cannot
// take stock movements.
func (s *Service) RequireActive(ctx context.Context, ids ...id.ID) error {
	for _, locationID := range id.Unique(ids) {
		loc, err := s.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if err := loc.CanMoveStock(); err != nil {
			return err
		}
	}
	return nil
}
