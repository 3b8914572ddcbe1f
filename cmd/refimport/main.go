// Command refimport loads a conviction reference extract into the entity
// collection, replacing the previous dataset.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"regoffice/internal/convictions"
	convictionsmetrics "regoffice/internal/convictions/metrics"
	"regoffice/internal/docstore"
	"regoffice/internal/extract"
	"regoffice/internal/platform/config"
	"regoffice/internal/platform/logger"
)

const entitiesTable = "conviction_entities"

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	app := &cli.App{
		Name:  "refimport",
		Usage: "import a conviction reference extract",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "path or S3 key of the extract (.csv or .csv.gz)", Required: true},
			&cli.StringFlag{Name: "s3-bucket", Usage: "read the extract from this S3 bucket instead of disk"},
			&cli.StringFlag{Name: "s3-region", Usage: "AWS region for the extract bucket", Value: "eu-west-1"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context

			var source extract.Source = extract.LocalSource{}
			if bucket := c.String("s3-bucket"); bucket != "" {
				s3Source, err := extract.NewS3Source(ctx, c.String("s3-region"), bucket)
				if err != nil {
					return err
				}
				source = s3Source
			}

			reader, err := extract.Open(ctx, source, c.String("file"))
			if err != nil {
				return err
			}
			defer reader.Close()

			entities, cleanup, err := openEntities(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			importer := convictions.NewImporter(entities, convictionsmetrics.New(), log)
			report, err := importer.Run(ctx, reader)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d of %d rows (%d skipped)\n", report.Imported, report.Total, report.Skipped)
			return nil
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func openEntities(ctx context.Context, cfg config.Config) (docstore.ReadWriter, func(), error) {
	if cfg.StoreDriver != "postgres" {
		return nil, nil, fmt.Errorf("refimport needs the postgres store driver")
	}
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := docstore.EnsureSchema(ctx, db, entitiesTable); err != nil {
		db.Close()
		return nil, nil, err
	}
	return docstore.NewPostgres(db, entitiesTable), func() { db.Close() }, nil
}
