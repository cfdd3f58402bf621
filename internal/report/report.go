// Package report renders markdown summaries of a toolkit run, suitable
// for a CI job summary.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopkeeper/internal/dedupe"
	"shopkeeper/internal/syncer"
)

// Report accumulates the sections of one run summary. Every report
// carries a unique run id so summaries from overlapping cron runs can
// be told apart.
type Report struct {
	RunID     string
	Shop      string
	StartedAt time.Time

	sections []string
}

// New creates an empty report for the given shop.
func New(shop string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Shop:      shop,
		StartedAt: time.Now(),
	}
}

// AddDedupe appends a duplicate-cleanup section.
func (r *Report) AddDedupe(result *dedupe.RunResult) {
	var sb strings.Builder

	title := "## Duplicate cleanup"
	if result.DryRun {
		title += " (dry run)"
	}

	sb.WriteString(title + "\n\n")
	sb.WriteString(fmt.Sprintf(
		"Catalog: %d products, %d duplicate titles. Deleted %d, failed %d.\n",
		result.TotalProducts, len(result.Groups), len(result.Deleted), len(result.Failed),
	))

	if len(result.Groups) > 0 {
		rows := make([][]string, 0, len(result.Groups))
		for _, group := range result.Groups {
			keeper := group.Keeper()
			rows = append(rows, []string{
				keeper.Title,
				fmt.Sprintf("%d", len(group.Products)),
				keeper.ID,
				keeper.CreatedAt.Format(time.RFC3339),
			})
		}

		sb.WriteString("\n")
		sb.WriteString(renderTable(
			[]string{"Title", "Copies", "Kept", "Created"},
			rows,
		))
	}

	if len(result.Failed) > 0 {
		rows := make([][]string, 0, len(result.Failed))
		for _, deletion := range result.Failed {
			rows = append(rows, []string{
				deletion.Product.ID,
				deletion.Product.Title,
				deletion.Err.Error(),
			})
		}

		sb.WriteString("\n### Failed deletions\n\n")
		sb.WriteString(renderTable(
			[]string{"Product", "Title", "Error"},
			rows,
		))
	}

	r.sections = append(r.sections, sb.String())
}

// AddSync appends a catalog-sync section with one row per brand file.
func (r *Report) AddSync(result *syncer.Result) {
	var sb strings.Builder

	sb.WriteString("## Catalog sync\n\n")
	sb.WriteString(fmt.Sprintf(
		"Brands: %d. Created %d, updated %d, failed %d products.\n\n",
		len(result.Brands), result.TotalCreated(), result.TotalUpdated(), result.TotalFailed(),
	))

	rows := make([][]string, 0, len(result.Brands))

	for _, brand := range result.Brands {
		if brand.Err != nil {
			rows = append(rows, []string{brand.Brand, "-", "-", "-", "-", brand.Err.Error()})

			continue
		}

		rows = append(rows, []string{
			brand.Brand,
			fmt.Sprintf("%d", brand.Stats.Loaded),
			fmt.Sprintf("%d", brand.Created),
			fmt.Sprintf("%d", brand.Updated),
			fmt.Sprintf("%d", brand.Failed),
			"",
		})
	}

	sb.WriteString(renderTable(
		[]string{"Brand", "Loaded", "Created", "Updated", "Failed", "Error"},
		rows,
	))

	r.sections = append(r.sections, sb.String())
}

// Render returns the full markdown document.
func (r *Report) Render() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Catalog run %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf(
		"Shop: %s. Started %s, took %s.\n",
		r.Shop,
		r.StartedAt.Format(time.RFC3339),
		time.Since(r.StartedAt).Round(time.Second),
	))

	for _, section := range r.sections {
		sb.WriteString("\n")
		sb.WriteString(section)
	}

	return sb.String()
}

// AppendToFile appends the rendered report to the given file, creating
// it when absent. CI job summary files are append-only by convention.
func (r *Report) AppendToFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString(r.Render() + "\n"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
