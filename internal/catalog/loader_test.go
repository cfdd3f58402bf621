package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("error", "text") // suppress output
}

func variant(title, price, sku string, available bool) models.BrandVariant {
	return models.BrandVariant{
		VariantTitle: title,
		Price:        price,
		SKU:          sku,
		Available:    available,
	}
}

func TestValidator_Validate_AllValid(t *testing.T) {
	products := []models.BrandProduct{
		{
			Title:    "Classic Hoodie",
			Variants: []models.BrandVariant{variant("M", "49.99", "HOOD-M", true)},
		},
		{
			Title: "Cargo Pants",
			Variants: []models.BrandVariant{
				variant("30", "79.99", "CARGO-30", false),
				variant("32", "79.99", "CARGO-32", true),
			},
		},
	}

	valid, stats := NewValidator(testLogger()).Validate(products)

	if len(valid) != 2 {
		t.Fatalf("Expected 2 valid products, got %d", len(valid))
	}

	if stats.Loaded != 2 || stats.SkippedInvalid != 0 || stats.SkippedNoStock != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestValidator_Validate_MissingTitleOrVariants(t *testing.T) {
	products := []models.BrandProduct{
		{Title: "", Variants: []models.BrandVariant{variant("M", "9.99", "X-M", true)}},
		{Title: "No Variants"},
		{Title: "Fine", Variants: []models.BrandVariant{variant("M", "9.99", "F-M", true)}},
	}

	valid, stats := NewValidator(testLogger()).Validate(products)

	if len(valid) != 1 || valid[0].Title != "Fine" {
		t.Fatalf("Expected only 'Fine' to survive, got %+v", valid)
	}

	if stats.SkippedInvalid != 2 {
		t.Errorf("Expected 2 invalid skips, got %d", stats.SkippedInvalid)
	}
}

func TestValidator_Validate_NoAvailableVariant(t *testing.T) {
	products := []models.BrandProduct{
		{
			Title: "Sold Out Jacket",
			Variants: []models.BrandVariant{
				variant("S", "99.99", "SOJ-S", false),
				variant("M", "99.99", "SOJ-M", false),
			},
		},
	}

	valid, stats := NewValidator(testLogger()).Validate(products)

	if len(valid) != 0 {
		t.Fatalf("Expected no valid products, got %d", len(valid))
	}

	if stats.SkippedNoStock != 1 {
		t.Errorf("Expected 1 no-stock skip, got %d", stats.SkippedNoStock)
	}
}

func TestValidator_Validate_DropsBrokenVariants(t *testing.T) {
	products := []models.BrandProduct{
		{
			Title: "Patchy Tee",
			Variants: []models.BrandVariant{
				variant("", "19.99", "PT-1", true),   // no title
				variant("M", "", "PT-2", true),       // no price
				variant("L", "19.99", "", true),      // no sku
				variant("XL", "19.99", "PT-4", true), // fine
			},
		},
	}

	valid, stats := NewValidator(testLogger()).Validate(products)

	if len(valid) != 1 {
		t.Fatalf("Expected 1 valid product, got %d", len(valid))
	}

	if len(valid[0].Variants) != 1 || valid[0].Variants[0].SKU != "PT-4" {
		t.Errorf("Expected only PT-4 to survive, got %+v", valid[0].Variants)
	}

	if stats.VariantsDropped != 3 {
		t.Errorf("Expected 3 dropped variants, got %d", stats.VariantsDropped)
	}
}

func TestValidator_Validate_AllVariantsBroken(t *testing.T) {
	products := []models.BrandProduct{
		{
			Title:    "Husk",
			Variants: []models.BrandVariant{variant("", "", "", true)},
		},
	}

	valid, stats := NewValidator(testLogger()).Validate(products)

	if len(valid) != 0 {
		t.Fatalf("Expected no valid products, got %d", len(valid))
	}

	if stats.SkippedInvalid != 1 || stats.VariantsDropped != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	content := `[
		{
			"title": "Classic Hoodie",
			"body_html": "<p>Heavyweight fleece</p>",
			"vendor": "pesoclo",
			"variants": [
				{"variant_title": "M", "price": "49.99", "sku": "HOOD-M", "available": true, "images": ["https://cdn.example.com/h1.jpg"]}
			]
		},
		{
			"title": "",
			"variants": []
		}
	]`

	path := filepath.Join(t.TempDir(), "pesoclo.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	products, stats, err := NewLoader(testLogger()).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(products))
	}

	if products[0].Vendor != "pesoclo" {
		t.Errorf("Expected vendor 'pesoclo', got %q", products[0].Vendor)
	}

	if stats.Total != 2 || stats.Loaded != 1 || stats.SkippedInvalid != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	if _, _, err := NewLoader(testLogger()).LoadFile("/nonexistent/brand.json"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoader_LoadFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"not": "an array"`), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, _, err := NewLoader(testLogger()).LoadFile(path); err == nil {
		t.Fatal("Expected error for malformed JSON")
	}
}
