// Package app assembles repositories and services over one database.
package app

import (
	"fmt"

	"stockbook/internal/core/numerator"
	"stockbook/internal/domain/catalogs/location"
	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/catalogs/vendor"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/adjustment"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/documents/transfer"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/domain/documents/vendor_credit"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/reports"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/valuation"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/catalog_repo"
	"stockbook/internal/infrastructure/storage/postgres/document_repo"
	"stockbook/internal/infrastructure/storage/postgres/register_repo"
	"stockbook/internal/infrastructure/storage/postgres/report_repo"
)

// Infra is what services need from the outside world.
type Infra struct {
	TxManager *postgres.TxManager
	Numerator numerator.Generator
	Rules     *rules.Engine
	// Locker defaults to documents.NopLocker.
	Locker documents.Locker
	// GL replaces the local journal when set, e.g. a remote ledger client.
	GL journal.Poster
}

// Services holds every domain service of the application.
type Services struct {
	Products  *product.Service
	Locations *location.Service
	Vendors   *vendor.Service

	PurchaseOrders *purchase_order.Service
	ItemReceipts   *item_receipt.Service
	VendorBills    *vendor_bill.Service
	VendorCredits  *vendor_credit.Service
	Adjustments    *adjustment.Service
	Transfers      *transfer.Service

	Stock   *stock.Service
	Journal journal.Poster
	Reports *reports.Service

	Deps documents.Deps
}

// NewServices wires repositories, registers and document services.
func NewServices(infra Infra) (*Services, error) {
	txm := infra.TxManager

	products := product.NewService(catalog_repo.NewProductRepo(txm), txm, infra.Numerator)
	locations := location.NewService(catalog_repo.NewLocationRepo(txm), txm)
	vendors := vendor.NewService(catalog_repo.NewVendorRepo(txm), txm, infra.Numerator)

	stockSvc := stock.NewService(register_repo.NewStockRepo(txm), products)

	gl := infra.GL
	if gl == nil {
		gl = journal.NewService(register_repo.NewJournalRepo(txm))
	}

	auditLog, err := postgres.NewAuditLog(txm)
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}

	locker := infra.Locker
	if locker == nil {
		locker = documents.NopLocker{}
	}

	engine := infra.Rules
	if engine == nil {
		if engine, err = rules.NewEngine(rules.Defaults()); err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
	}

	deps := documents.Deps{
		TxManager: txm,
		Numerator: infra.Numerator,
		Stock:     stockSvc,
		Valuation: valuation.NewProcessor(stockSvc, products),
		Journal:   gl,
		Rules:     engine,
		Locker:    locker,
		Events:    postgres.NewOutboxPublisher(txm),
		Audit:     auditLog,
		Locations: locations,
		Vendors:   vendors,
	}

	orderRepo := document_repo.NewPurchaseOrderRepo(txm)
	receiptRepo := document_repo.NewItemReceiptRepo(txm)
	billRepo := document_repo.NewVendorBillRepo(txm)

	return &Services{
		Products:  products,
		Locations: locations,
		Vendors:   vendors,

		PurchaseOrders: purchase_order.NewService(orderRepo, deps),
		ItemReceipts:   item_receipt.NewService(receiptRepo, orderRepo, deps),
		VendorBills:    vendor_bill.NewService(billRepo, receiptRepo, orderRepo, deps),
		VendorCredits:  vendor_credit.NewService(document_repo.NewVendorCreditRepo(txm), billRepo, deps),
		Adjustments:    adjustment.NewService(document_repo.NewAdjustmentRepo(txm), deps),
		Transfers:      transfer.NewService(document_repo.NewTransferRepo(txm), deps),

		Stock:   stockSvc,
		Journal: gl,
		Reports: reports.NewService(report_repo.NewReportRepo(txm)),

		Deps: deps,
	}, nil
}
