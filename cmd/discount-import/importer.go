package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/vat-catalog/internal/domain/discount"
	"github.com/xenking/vat-catalog/internal/domain/pricing"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	csvHeader     = "productid,discountid,percent"
)

type applier interface {
	Apply(ctx context.Context, productID string, d product.Discount) discount.Result
}

type importRow struct {
	productID string
	discount  product.Discount
}

var errMalformed = errors.New("malformed line")

// parseLine parses "productId,discountId,percent". Format rules beyond
// field count and a numeric percent are left to the application protocol.
func parseLine(line string) (importRow, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return importRow{}, errors.Wrapf(errMalformed, "want 3 fields, got %d", len(fields))
	}
	percent, err := pricing.ParseDecimal(strings.TrimSpace(fields[2]))
	if err != nil {
		return importRow{}, errors.Wrapf(errMalformed, "percent: %v", err)
	}
	return importRow{
		productID: strings.TrimSpace(fields[0]),
		discount: product.Discount{
			ID:      strings.TrimSpace(fields[1]),
			Percent: percent,
		},
	}, nil
}

// summary counts rows by outcome. Safe for concurrent use.
type summary struct {
	rows      atomic.Int64
	malformed atomic.Int64
	repeats   atomic.Int64

	mu       sync.Mutex
	outcomes map[discount.Outcome]int64
}

func (s *summary) add(o discount.Outcome) {
	s.mu.Lock()
	s.outcomes[o]++
	s.mu.Unlock()
}

func (s *summary) count(o discount.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcomes[o]
}

func (s *summary) log() {
	attrs := []any{
		slog.Int64("rows", s.rows.Load()),
		slog.Int64("malformed", s.malformed.Load()),
		slog.Int64("probable_repeats", s.repeats.Load()),
	}
	for _, o := range []discount.Outcome{
		discount.OutcomeSuccess,
		discount.OutcomeAlreadyApplied,
		discount.OutcomeProductNotFound,
		discount.OutcomeValidationError,
		discount.OutcomeStoreError,
	} {
		attrs = append(attrs, slog.Int64(o.String(), s.count(o)))
	}
	slog.Info("import summary", attrs...)
}

type importer struct {
	svc     applier
	workers int

	seenMu sync.Mutex
	seen   *bloom.BloomFilter
}

func newImporter(svc applier, workers int) *importer {
	return &importer{
		svc:     svc,
		workers: workers,
		seen:    bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Run streams every file with its own reader and applies rows on a fixed
// pool of workers. Only read failures abort the run; application outcomes,
// including StoreError, are counted.
func (im *importer) Run(ctx context.Context, files []string) (*summary, error) {
	sum := &summary{outcomes: make(map[discount.Outcome]int64)}
	rows := make(chan importRow, im.workers*4)

	g, ctx := errgroup.WithContext(ctx)

	var readers sync.WaitGroup
	for _, path := range files {
		readers.Add(1)
		g.Go(func() error {
			defer readers.Done()
			return im.readFile(ctx, path, rows, sum)
		})
	}
	g.Go(func() error {
		readers.Wait()
		close(rows)
		return nil
	})

	for range im.workers {
		g.Go(func() error {
			for r := range rows {
				res := im.svc.Apply(ctx, r.productID, r.discount)
				sum.add(res.Outcome)
				if n := sum.rows.Add(1); n%progressEvery == 0 {
					slog.Info("import progress", slog.Int64("rows", n))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

func (im *importer) readFile(ctx context.Context, path string, out chan<- importRow, sum *summary) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || (lineNo == 1 && strings.EqualFold(line, csvHeader)) {
			continue
		}

		r, err := parseLine(line)
		if err != nil {
			sum.malformed.Add(1)
			slog.Debug("skipping line", slog.String("file", path), slog.Int("line", lineNo), slog.String("error", err.Error()))
			continue
		}
		if im.probablySeen(r) {
			sum.repeats.Add(1)
		}

		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

func (im *importer) probablySeen(r importRow) bool {
	key := r.productID + "/" + r.discount.ID

	im.seenMu.Lock()
	defer im.seenMu.Unlock()
	return im.seen.TestOrAddString(key)
}
