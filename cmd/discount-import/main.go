// Command discount-import applies discounts in bulk from gzip-compressed
// CSV files. Every row goes through the same application protocol as the
// HTTP API, so re-running an import is safe.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/vat-catalog/internal/domain/discount"
	"github.com/xenking/vat-catalog/internal/domain/product"
	"github.com/xenking/vat-catalog/internal/repository"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		workers     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz discount files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "number of concurrent discount applications")
	flag.Parse()

	_ = godotenv.Load()
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, workers); err != nil {
		slog.Error("discount import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("discount import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, workers int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list data files")
	}
	if len(files) == 0 {
		slog.Info("no data files found", slog.String("dir", dataDir))
		return nil
	}
	slices.Sort(files)

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	products := product.NewService(repository.NewProductRepository(pool))
	svc, err := discount.NewService(products, repository.NewDiscountRepository(pool))
	if err != nil {
		return errors.Wrap(err, "create discount service")
	}

	slog.Info("importing", slog.Int("files", len(files)), slog.Int("workers", workers))

	sum, err := newImporter(svc, workers).Run(ctx, files)
	if err != nil {
		return err
	}
	sum.log()
	return nil
}
