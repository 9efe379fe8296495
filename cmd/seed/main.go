// Package main seeds reference data and, optionally, demo catalogs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/catalogs/location"
	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/catalogs/vendor"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/numerator"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/catalog_repo"
	"stockbook/pkg/logger"
)

var statusNames = map[status.Status]string{
	status.Open:   "Open",
	status.Closed: "Closed",
}

func main() {
	demo := flag.Bool("demo", false, "also create demo products, locations and vendors")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)

	if err := catalog_repo.NewStatusRepo(txm).EnsureStatuses(ctx, statusNames); err != nil {
		log.Fatalw("failed to seed statuses", "error", err)
	}
	log.Info("statuses seeded")

	if *demo {
		services, err := app.NewServices(app.Infra{TxManager: txm, Numerator: numerator.New(pool)})
		if err != nil {
			log.Fatalw("failed to build services", "error", err)
		}
		if err := seedDemo(ctx, services, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedDemo(ctx context.Context, s *app.Services, log *logger.Logger) error {
	locations := []*location.Location{
		location.NewLocation("MAIN", "Main warehouse"),
		location.NewLocation("STORE", "Store front"),
	}
	for _, l := range locations {
		if err := ensure(ctx, log, "location", l.Code, s.Locations.GetByCode, s.Locations.Create, l); err != nil {
			return err
		}
	}

	vendors := []*vendor.Vendor{
		vendor.NewVendor("ACME", "Acme Supplies"),
		vendor.NewVendor("NORTH", "Northwind Traders"),
	}
	vendors[1].PaymentTermsDays = 45
	for _, v := range vendors {
		if err := ensure(ctx, log, "vendor", v.Code, s.Vendors.GetByCode, s.Vendors.Create, v); err != nil {
			return err
		}
	}

	widget := product.NewProduct("WIDGET", "Widget", product.TypeInventory)
	widget.Unit = "pcs"
	bolt := product.NewProduct("BOLT-M8", "Bolt M8", product.TypeInventory)
	bolt.Unit = "box"
	freight := product.NewProduct("FREIGHT", "Freight charge", product.TypeService)
	for _, p := range []*product.Product{widget, bolt, freight} {
		if err := ensure(ctx, log, "product", p.Code, s.Products.GetByCode, s.Products.Create, p); err != nil {
			return err
		}
	}
	return nil
}

// ensure creates e unless an entity with the same code exists.
func ensure[T any](
	ctx context.Context,
	log *logger.Logger,
	kind, code string,
	get func(context.Context, string) (T, error),
	create func(context.Context, T) error,
	e T,
) error {
	if _, err := get(ctx, code); err == nil {
		log.Infow("already exists", "kind", kind, "code", code)
		return nil
	} else if !apperror.IsNotFound(err) {
		return fmt.Errorf("look up %s %s: %w", kind, code, err)
	}
	if err := create(ctx, e); err != nil {
		return fmt.Errorf("create %s %s: %w", kind, code, err)
	}
	log.Infow("created", "kind", kind, "code", code)
	return nil
}
