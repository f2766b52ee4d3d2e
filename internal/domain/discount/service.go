package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/vat-catalog/internal/domain/product"
)

const instrumentationName = "github.com/xenking/vat-catalog/internal/domain/discount"

// Outcome enumerates the results of applying a discount.
type Outcome int

const (
	// OutcomeSuccess means the discount was inserted by this call.
	OutcomeSuccess Outcome = iota + 1
	// OutcomeAlreadyApplied means the (product, discount ID) pair was
	// already stored. This is the idempotent success variant.
	OutcomeAlreadyApplied
	// OutcomeProductNotFound means the product does not exist.
	OutcomeProductNotFound
	// OutcomeValidationError means the input violates a discount rule.
	OutcomeValidationError
	// OutcomeStoreError means the store failed for an unexpected reason.
	OutcomeStoreError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyApplied:
		return "already_applied"
	case OutcomeProductNotFound:
		return "product_not_found"
	case OutcomeValidationError:
		return "validation_error"
	case OutcomeStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of Service.Apply. Which fields are set depends on
// Outcome:
//   - Success, AlreadyApplied: Product holds the state read in the insert
//     transaction.
//   - ProductNotFound: ProductID.
//   - ValidationError: Reason.
//   - StoreError: Reason and Err.
type Result struct {
	Outcome   Outcome
	Product   *product.Product
	ProductID string
	Reason    string
	Err       error
	// PercentMismatch is set on AlreadyApplied when the stored percent for
	// the discount ID differs from the requested one.
	PercentMismatch bool
}

// InsertOutcome classifies a discount insert attempt.
type InsertOutcome int

const (
	// Inserted means the row was committed.
	Inserted InsertOutcome = iota
	// Duplicate means the (product, discount ID) uniqueness constraint
	// rejected the row.
	Duplicate
	// MissingProduct means the referenced product does not exist.
	MissingProduct
)

// Store performs the single atomic insert of a discount row and returns the
// product as read in the same transaction. Constraint rejections are
// reported as an InsertOutcome; the error is reserved for every other
// failure. The product is nil for MissingProduct.
type Store interface {
	InsertDiscount(ctx context.Context, productID string, d product.Discount) (InsertOutcome, *product.Product, error)
}

// Catalog reads a product with its current discounts.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, bool, error)
}

// Option configures a Service.
type Option func(*options)

type options struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider sets the meter provider used for outcome counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for Apply spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// Service applies discounts to products. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	catalog  Catalog
	store    Store
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// NewService creates a Service that validates against catalog reads and
// writes through store.
func NewService(catalog Catalog, store Store, opts ...Option) (*Service, error) {
	o := options{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	outcomes, err := o.meterProvider.Meter(instrumentationName).Int64Counter(
		"catalog.discount.apply",
		metric.WithDescription("Discount applications by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create outcome counter")
	}

	return &Service{
		catalog:  catalog,
		store:    store,
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		outcomes: outcomes,
	}, nil
}

// Apply attaches d to the product. Input format is checked first, then the
// product is read and the remaining rules are evaluated against its current
// discounts, then a single insert is attempted. The store's answer to that
// insert decides between Success and AlreadyApplied.
//
// The count and cumulative checks use the snapshot read before the insert,
// so two different discounts applied concurrently may jointly pass 100%.
func (s *Service) Apply(ctx context.Context, productID string, d product.Discount) (res Result) {
	ctx, span := s.tracer.Start(ctx, "discount.Apply", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.String("discount.id", d.ID),
	))
	defer func() {
		s.record(ctx, span, productID, d, res)
		span.End()
	}()

	if err := ValidateID(d.ID); err != nil {
		return invalid(err)
	}
	if err := ValidatePercent(d.Percent); err != nil {
		return invalid(err)
	}

	current, ok, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return storeFailure(errors.Wrap(err, "read product"))
	}
	if !ok {
		return notFound(productID)
	}

	if err := ValidateNew(d, current.Discounts); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return alreadyApplied(current, d)
		}
		return invalid(err)
	}

	outcome, after, err := s.store.InsertDiscount(ctx, productID, d)
	if err != nil {
		return storeFailure(errors.Wrap(err, "insert discount"))
	}
	if outcome == MissingProduct || after == nil {
		return notFound(productID)
	}

	if outcome == Duplicate {
		return alreadyApplied(after, d)
	}
	return Result{Outcome: OutcomeSuccess, Product: after}
}

func (s *Service) record(ctx context.Context, span trace.Span, productID string, d product.Discount, res Result) {
	span.SetAttributes(attribute.String("discount.outcome", res.Outcome.String()))
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", res.Outcome.String())))

	lg := zctx.From(ctx).With(
		zap.String("product_id", productID),
		zap.String("discount_id", d.ID),
		zap.Stringer("outcome", res.Outcome),
	)
	switch res.Outcome {
	case OutcomeStoreError:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Reason)
		lg.Error("Apply discount failed", zap.Error(res.Err))
	case OutcomeAlreadyApplied:
		if res.PercentMismatch {
			lg.Warn("Discount already applied with a different percent",
				zap.Stringer("requested", d.Percent))
			return
		}
		lg.Debug("Discount already applied")
	default:
		lg.Debug("Apply discount")
	}
}

func invalid(err error) Result {
	return Result{Outcome: OutcomeValidationError, Reason: err.Error()}
}

func notFound(productID string) Result {
	return Result{Outcome: OutcomeProductNotFound, ProductID: productID}
}

func storeFailure(err error) Result {
	return Result{Outcome: OutcomeStoreError, Reason: err.Error(), Err: err}
}

func alreadyApplied(p *product.Product, requested product.Discount) Result {
	res := Result{Outcome: OutcomeAlreadyApplied, Product: p}
	if stored, ok := p.Discount(requested.ID); ok {
		res.PercentMismatch = !stored.Percent.Equal(requested.Percent)
	}
	return res
}
