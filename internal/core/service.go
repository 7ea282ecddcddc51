package core

import (
	"context"
	"sort"
	"time"

	"stillcore/pkg/domain"

	"github.com/shopspring/decimal"
)

// Service exposes the production-run and invoice workflows over a persistent
// store. It is constructed once at process start and passed explicitly to
// callers; there is no hidden global instance.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	nowFn   func() time.Time
}

// Option customises service construction.
type Option func(*Service)

// WithLogger sets the structured logger used by workflow operations.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics recorder observing operation outcomes.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer sets the tracer wrapping workflow operations.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: noopLogger{},
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// instrument wraps an operation with tracing, metrics, and failure logging.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	var span Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	start := time.Now()
	err := fn(ctx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error(operation+" failed", "error", err)
	}
	return err
}

func (s *Service) logWarnings(operation string, res domain.Result) {
	for _, v := range res.Warnings() {
		s.logger.Warn(operation+" warning", "rule", v.Rule, "entity", string(v.Entity), "entity_id", v.EntityID, "message", v.Message)
	}
}

// CreateProductionRun opens a new run for the given spirit. A zero startDate
// means the run begins immediately. The run carries no end date or produced
// quantity until close-out, and creation never touches stock.
func (s *Service) CreateProductionRun(ctx context.Context, spiritID int, startDate time.Time) (domain.ProductionRun, domain.Result, error) {
	var created domain.ProductionRun
	var result domain.Result
	err := s.instrument(ctx, "create_production_run", func(ctx context.Context) error {
		if startDate.IsZero() {
			startDate = s.nowFn()
		}
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.Snapshot().SpiritNames()[spiritID]; !ok {
				return domain.ErrValidation{Field: "spirit_id", Reason: "not a known spirit"}
			}
			var err error
			created, err = tx.CreateProductionRun(domain.ProductionRun{
				ProcessType: domain.ProcessProductionRun,
				SpiritID:    spiritID,
				StartDate:   startDate,
			})
			return err
		})
		result = res
		return err
	})
	if err == nil {
		s.logWarnings("create_production_run", result)
		s.logger.Debug("production run created", "run_id", created.ID, "spirit_id", spiritID)
	}
	return created, result, err
}

// CloseProductionRun closes an open run: it sets the end date, produced
// quantity, and distiller notes, and credits the run's spirit stock by the
// produced quantity, all in one transaction. A zero endDate means the run just
// finished. Closing an already-closed run fails, so the credit is applied
// exactly once per run.
func (s *Service) CloseProductionRun(ctx context.Context, runID int, endDate time.Time, quantityProduced float64, notes string) (domain.ProductionRun, domain.Result, error) {
	var updated domain.ProductionRun
	var result domain.Result
	err := s.instrument(ctx, "close_production_run", func(ctx context.Context) error {
		if endDate.IsZero() {
			endDate = s.nowFn()
		}
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			run, ok := tx.FindProductionRun(runID)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityProductionRun, ID: runID}
			}
			if !run.Open() {
				return domain.ErrValidation{Field: "run_id", Reason: "production run is already closed"}
			}
			if quantityProduced < 0 {
				return domain.ErrValidation{Field: "quantity_produced", Reason: "must be non-negative"}
			}
			if _, err := tx.UpdateStockItem(run.SpiritID, func(item *domain.StockItem) error {
				item.Quantity += quantityProduced
				return nil
			}); err != nil {
				return err
			}
			var err error
			updated, err = tx.UpdateProductionRun(runID, func(r *domain.ProductionRun) error {
				r.EndDate = &endDate
				r.QuantityProduced = &quantityProduced
				r.Notes = &notes
				return nil
			})
			return err
		})
		result = res
		return err
	})
	if err == nil {
		s.logWarnings("close_production_run", result)
		s.logger.Debug("production run closed", "run_id", runID, "quantity_produced", quantityProduced)
	}
	return updated, result, err
}

// ResolveCustomer returns every customer whose first and last name match
// exactly (case-sensitive). An empty slice means no profile exists yet and the
// caller should create one; multiple matches are all surfaced for manual
// disambiguation.
func (s *Service) ResolveCustomer(ctx context.Context, firstName, lastName string) ([]domain.Customer, error) {
	var matches []domain.Customer
	err := s.instrument(ctx, "resolve_customer", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.TransactionView) error {
			for _, customer := range view.ListCustomers() {
				if customer.FirstName == firstName && customer.LastName == lastName {
					matches = append(matches, customer)
				}
			}
			return nil
		})
	})
	return matches, err
}

// AddCustomer creates a customer profile.
func (s *Service) AddCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, domain.Result, error) {
	var created domain.Customer
	var result domain.Result
	err := s.instrument(ctx, "add_customer", func(ctx context.Context) error {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateCustomer(customer)
			return err
		})
		result = res
		return err
	})
	return created, result, err
}

// BillingAddress selects the address recorded on an invoice: either a snapshot
// of the customer's residential address or an explicit override.
type BillingAddress struct {
	UseResidential bool
	Override       string
}

// CreateInvoice sells spirit stock to a customer. Line items map stock ids to
// bottle counts. Each priced line contributes unit price times quantity to the
// total; lines whose product has no resolvable price are kept as unpriced
// lines contributing zero. Every line, priced or not, debits the product's
// stock by quantity times the bottle volume, with no floor at zero.
func (s *Service) CreateInvoice(ctx context.Context, customerID int, billing BillingAddress, lineItems map[int]int) (domain.Invoice, domain.Result, error) {
	var created domain.Invoice
	var result domain.Result
	err := s.instrument(ctx, "create_invoice", func(ctx context.Context) error {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			customer, ok := tx.FindCustomer(customerID)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityCustomer, ID: customerID}
			}
			address := billing.Override
			if billing.UseResidential {
				address = customer.Address
			}

			prices := tx.Snapshot().SpiritPrices()

			productIDs := make([]int, 0, len(lineItems))
			for id := range lineItems {
				productIDs = append(productIDs, id)
			}
			sort.Ints(productIDs)

			total := decimal.Zero
			lines := make([]domain.InvoiceLine, 0, len(productIDs))
			for _, productID := range productIDs {
				quantity := lineItems[productID]
				line := domain.InvoiceLine{ProductID: productID, Quantity: quantity}
				if price, priced := prices[productID]; priced {
					line.UnitPrice = price
					line.LineTotal = price.Mul(decimal.NewFromInt(int64(quantity)))
					total = total.Add(line.LineTotal)
				} else {
					line.Unpriced = true
				}
				lines = append(lines, line)

				if _, err := tx.UpdateStockItem(productID, func(item *domain.StockItem) error {
					item.Quantity -= float64(quantity) * domain.BottleLiters
					return nil
				}); err != nil {
					return err
				}
			}

			var err error
			created, err = tx.CreateInvoice(domain.Invoice{
				CustomerID:     customerID,
				InvoiceDate:    s.nowFn(),
				BillingAddress: address,
				Total:          total,
				Lines:          lines,
			})
			return err
		})
		result = res
		return err
	})
	if err == nil {
		s.logWarnings("create_invoice", result)
		s.logger.Debug("invoice created", "invoice_id", created.ID, "customer_id", customerID, "total", created.Total.String())
	}
	return created, result, err
}

// AddStockItem registers a new stock record. Spirits carry a unit price; raw
// materials must not.
func (s *Service) AddStockItem(ctx context.Context, item domain.StockItem) (domain.StockItem, domain.Result, error) {
	var created domain.StockItem
	var result domain.Result
	err := s.instrument(ctx, "add_stock_item", func(ctx context.Context) error {
		if item.Quantity < 0 {
			return domain.ErrValidation{Field: "quantity", Reason: "must be non-negative"}
		}
		if !item.IsSpirit && item.UnitPrice != nil {
			return domain.ErrValidation{Field: "unit_price", Reason: "only spirits carry a unit price"}
		}
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateStockItem(item)
			return err
		})
		result = res
		return err
	})
	return created, result, err
}
