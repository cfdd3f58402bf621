package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shopkeeper/internal/catalog"
	"shopkeeper/internal/dedupe"
	"shopkeeper/internal/models"
	"shopkeeper/internal/syncer"
)

func product(id, title, createdAt string) models.Product {
	ts, _ := time.Parse(time.RFC3339, createdAt)

	return models.Product{ID: id, Title: title, CreatedAt: ts}
}

func TestRenderTable_Alignment(t *testing.T) {
	table := renderTable(
		[]string{"Title", "Copies"},
		[][]string{
			{"Classic Hoodie", "3"},
			{"Tee", "2"},
		},
	)

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %q", len(lines), table)
	}

	// Every row renders to the same display width.
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) != len(lines[0]) {
			t.Errorf("Line %d width %d, expected %d: %q", i, len(lines[i]), len(lines[0]), lines[i])
		}
	}

	if !strings.Contains(lines[1], "---") {
		t.Errorf("Expected separator row, got %q", lines[1])
	}
}

func TestRenderTable_EscapesCells(t *testing.T) {
	table := renderTable(
		[]string{"Title"},
		[][]string{{"Pipe | Dream\nSecond Line"}},
	)

	if !strings.Contains(table, `Pipe \| Dream Second Line`) {
		t.Errorf("Expected escaped cell, got %q", table)
	}
}

func TestReport_AddDedupe(t *testing.T) {
	result := &dedupe.RunResult{
		TotalProducts: 4,
		Groups: []dedupe.DuplicateGroup{
			{
				Key: "classic hoodie",
				Products: []models.Product{
					product("gid://shopify/Product/1", "Classic Hoodie", "2024-01-01T00:00:00Z"),
					product("gid://shopify/Product/2", "Classic Hoodie", "2024-01-05T00:00:00Z"),
				},
			},
		},
		Deleted: []dedupe.Deletion{
			{Product: product("gid://shopify/Product/1", "Classic Hoodie", "2024-01-01T00:00:00Z")},
		},
		Failed: []dedupe.Deletion{
			{
				Product: product("gid://shopify/Product/3", "Stuck", "2024-01-02T00:00:00Z"),
				Err:     errors.New("Product cannot be deleted"),
			},
		},
	}

	rep := New("test-shop.myshopify.com")
	rep.AddDedupe(result)

	rendered := rep.Render()

	for _, want := range []string{
		rep.RunID,
		"test-shop.myshopify.com",
		"## Duplicate cleanup",
		"4 products, 1 duplicate titles",
		"gid://shopify/Product/2", // the keeper
		"### Failed deletions",
		"Product cannot be deleted",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Expected report to contain %q:\n%s", want, rendered)
		}
	}
}

func TestReport_AddDedupe_DryRun(t *testing.T) {
	rep := New("test-shop.myshopify.com")
	rep.AddDedupe(&dedupe.RunResult{DryRun: true})

	if !strings.Contains(rep.Render(), "## Duplicate cleanup (dry run)") {
		t.Errorf("Expected dry-run marker:\n%s", rep.Render())
	}
}

func TestReport_AddSync(t *testing.T) {
	result := &syncer.Result{
		Brands: []syncer.BrandResult{
			{
				Brand:   "pesoclo",
				Stats:   &catalog.LoadStats{Total: 12, Loaded: 10},
				Created: 3,
				Updated: 7,
			},
			{
				Brand: "broken",
				Err:   errors.New("failed to read brand file"),
			},
		},
	}

	rep := New("test-shop.myshopify.com")
	rep.AddSync(result)

	rendered := rep.Render()

	for _, want := range []string{
		"## Catalog sync",
		"Created 3, updated 7, failed 0",
		"| pesoclo",
		"failed to read brand file",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Expected report to contain %q:\n%s", want, rendered)
		}
	}
}

func TestReport_AppendToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")

	rep := New("test-shop.myshopify.com")
	rep.AddDedupe(&dedupe.RunResult{TotalProducts: 1})

	if err := rep.AppendToFile(path); err != nil {
		t.Fatalf("AppendToFile failed: %v", err)
	}

	// Appending twice keeps both copies.
	if err := rep.AppendToFile(path); err != nil {
		t.Fatalf("Second AppendToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}

	if got := strings.Count(string(data), rep.RunID); got != 2 {
		t.Errorf("Expected run id twice, got %d", got)
	}
}
