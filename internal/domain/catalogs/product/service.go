package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
	"stockbook/internal/domain/valuation"
)

// Service provides business logic for the product catalog.
// It is also the item-kind lookup for stock and the cost store for valuation.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new product service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.keepAverageCost)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" && s.numerator != nil {
		code, err := s.numerator.GetNextNumber(ctx, numerator.Config{Prefix: "SKU", PadWidth: 6, ResetPeriod: "never"}, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}
	if p.Type == TypeService {
		p.AverageCost = decimal.Zero
	}
	return nil
}

// keepAverageCost stops catalog edits from overwriting the cost that
// valuation maintains.
func (s *Service) keepAverageCost(ctx context.Context, p *Product) error {
	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil
	}
	p.AverageCost = current.AverageCost
	if current.Type == TypeInventory && p.Type != TypeInventory && !current.AverageCost.IsZero() {
		return apperror.NewBusinessRule("product.type_locked", "a valued inventory product cannot become a service").
			WithDetail("product_id", p.ID.String())
	}
	return nil
}

// TrackedItems reports for each known product whether it carries inventory.
func (s *Service) TrackedItems(ctx context.Context, ids []id.ID) (map[id.ID]bool, error) {
	costs, err := s.repo.GetCosts(ctx, id.Unique(ids))
	if err != nil {
		return nil, fmt.Errorf("load product types: %w", err)
	}
	out := make(map[id.ID]bool, len(costs))
	for _, c := range costs {
		out[c.ID] = c.Type == TypeInventory
	}
	return out, nil
}

// ItemCosts implements valuation.CostStore.
func (s *Service) ItemCosts(ctx context.Context, ids []id.ID) (map[id.ID]valuation.ItemCost, error) {
	costs, err := s.repo.GetCosts(ctx, id.Unique(ids))
	if err != nil {
		return nil, fmt.Errorf("load product costs: %w", err)
	}
	out := make(map[id.ID]valuation.ItemCost, len(costs))
	for _, c := range costs {
		out[c.ID] = valuation.ItemCost{Tracked: c.Type == TypeInventory, AverageCost: c.AverageCost}
	}
	return out, nil
}

// UpdateAverageCost implements valuation.CostStore.
func (s *Service) UpdateAverageCost(ctx context.Context, productID id.ID, cost decimal.Decimal) error {
	return s.repo.SetAverageCost(ctx, productID, cost)
}

var _ valuation.CostStore = (*Service)(nil)
