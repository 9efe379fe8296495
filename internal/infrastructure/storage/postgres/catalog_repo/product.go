package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, productTable, "product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// Update writes catalog fields. The average cost belongs to valuation and is
// never overwritten from a catalog edit.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p, postgres.Without(r.selectCols, "id", "version", "average_cost"))
}

// GetCosts implements product.Repository. Inside a transaction the rows are
// locked in id order.
func (r *ProductRepo) GetCosts(ctx context.Context, ids []id.ID) ([]product.Cost, error) {
	ids = id.Unique(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	q := postgres.Builder().
		Select("id", "type", "average_cost").
		From(productTable).
		Where("id = ANY(?)", ids).
		OrderBy("id")
	if r.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var costs []product.Cost
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &costs, sql, args...); err != nil {
		return nil, fmt.Errorf("get product costs: %w", err)
	}
	return costs, nil
}

// SetAverageCost implements product.Repository.
func (r *ProductRepo) SetAverageCost(ctx context.Context, productID id.ID, cost decimal.Decimal) error {
	sql, args, err := postgres.Builder().
		Update(productTable).
		Set("average_cost", cost).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set average cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}
