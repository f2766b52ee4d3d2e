// Command seed-db loads the demo catalog from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/vat-catalog/internal/domain/product"
	"github.com/xenking/vat-catalog/internal/repository"
)

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	_ = godotenv.Load()
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}
	var products []product.NewProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc := product.NewService(repository.NewProductRepository(pool))

	var created, skipped int
	for _, np := range products {
		p, err := svc.Create(ctx, np)
		switch {
		case errors.Is(err, product.ErrAlreadyExists):
			skipped++
			slog.Info("product exists, skipping", slog.String("id", np.ID))
		case err != nil:
			return errors.Wrapf(err, "create product %s", np.ID)
		default:
			created++
			slog.Info("created product",
				slog.String("id", p.ID),
				slog.String("country", string(p.Country)),
				slog.String("final_price", p.FinalPrice().StringFixed(2)),
			)
		}
	}

	slog.Info("products seeded", slog.Int("created", created), slog.Int("skipped", skipped))
	return nil
}
