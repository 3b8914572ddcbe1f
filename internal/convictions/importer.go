package convictions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"regoffice/internal/convictions/metrics"
	"regoffice/internal/docstore"
	"regoffice/internal/query"
	"regoffice/pkg/dateparse"
)

// extract column headers, matched case-insensitively so format revisions
// that only reorder columns keep working.
const (
	colName           = "name"
	colDateOfBirth    = "date_of_birth"
	colCompanyNumber  = "company_number"
	colSystemFlag     = "system_flag"
	colIncidentNumber = "incident_number"
)

// ImportReport summarizes one import run.
type ImportReport struct {
	Total    int
	Imported int
	Skipped  int
}

// Importer loads a conviction extract into the reference collection,
// replacing the previous dataset in one swap so entities stay immutable
// and readers never see a partial import.
type Importer struct {
	entities docstore.ReadWriter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewImporter(entities docstore.ReadWriter, m *metrics.Metrics, logger *slog.Logger) *Importer {
	return &Importer{entities: entities, metrics: m, logger: logger}
}

// Run parses CSV rows from r and swaps the reference collection. Rows
// without a usable name are skipped and counted, not fatal; a malformed
// CSV structure is.
func (i *Importer) Run(ctx context.Context, r io.Reader) (ImportReport, error) {
	rows := make(chan []string, 64)
	var report ImportReport
	var docs []query.Document

	var header []string
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		first, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read extract header: %w", err)
		}
		header = first
		for {
			row, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read extract row: %w", err)
			}
			select {
			case rows <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		var columns map[string]int
		for row := range rows {
			if columns == nil {
				columns = indexColumns(header)
			}
			report.Total++
			entity, ok := mapRow(columns, row)
			if !ok {
				report.Skipped++
				continue
			}
			doc, err := entity.Document()
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return ImportReport{}, err
	}

	if err := i.entities.ReplaceAll(ctx, docs); err != nil {
		return ImportReport{}, fmt.Errorf("swap reference collection: %w", err)
	}
	report.Imported = len(docs)
	i.metrics.SetImportedEntities(report.Imported)
	i.logger.InfoContext(ctx, "reference data import finished",
		"total", report.Total,
		"imported", report.Imported,
		"skipped", report.Skipped,
	)
	return report, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	return columns
}

// mapRow converts one extract row into a reference entity. This is the
// row-to-entity contract: rows arrive already split, and absent optional
// fields become nils on the entity.
func mapRow(columns map[string]int, row []string) (ReferenceEntity, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := field(colName)
	if name == "" {
		return ReferenceEntity{}, false
	}

	entity := ReferenceEntity{
		ID:             uuid.NewString(),
		Kind:           KindCompany,
		Name:           name,
		SystemFlag:     field(colSystemFlag),
		IncidentNumber: field(colIncidentNumber),
	}
	if number := field(colCompanyNumber); number != "" {
		entity.CompanyNumber = &number
	}
	if dob, ok := dateparse.Parse(field(colDateOfBirth)); ok {
		entity.Kind = KindPerson
		entity.DateOfBirth = &dob
	}
	return entity, true
}
