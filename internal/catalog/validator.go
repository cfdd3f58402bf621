// Package catalog loads and validates scraped brand catalog files.
package catalog

import (
	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
)

// LoadStats counts what happened to a brand file's products during
// validation.
type LoadStats struct {
	Total           int
	Loaded          int
	SkippedInvalid  int
	SkippedNoStock  int
	VariantsDropped int
}

// Validator filters brand products down to the entries the sync can push.
type Validator struct {
	logger *logger.Logger
}

// NewValidator creates a new validator instance.
func NewValidator(log *logger.Logger) *Validator {
	return &Validator{logger: log}
}

// Validate filters a raw product list. A product without a title or
// variants is skipped; variants missing required fields are dropped
// individually; a product left without an available variant is skipped.
func (v *Validator) Validate(products []models.BrandProduct) ([]models.BrandProduct, *LoadStats) {
	stats := &LoadStats{Total: len(products)}

	var valid []models.BrandProduct

	for _, product := range products {
		if product.Title == "" || len(product.Variants) == 0 {
			stats.SkippedInvalid++
			v.logger.Warn("Skipping invalid product",
				"title", product.Title,
				"variants", len(product.Variants),
			)

			continue
		}

		var kept []models.BrandVariant

		for _, variant := range product.Variants {
			if !validVariant(variant) {
				stats.VariantsDropped++
				v.logger.Warn("Dropping variant with missing fields",
					"product", product.Title,
					"sku", variant.SKU,
				)

				continue
			}

			kept = append(kept, variant)
		}

		if len(kept) == 0 {
			stats.SkippedInvalid++
			v.logger.Warn("Skipping product with no usable variants", "title", product.Title)

			continue
		}

		product.Variants = kept

		if !product.HasAvailableVariant() {
			stats.SkippedNoStock++
			v.logger.Warn("Skipping product with no available variant", "title", product.Title)

			continue
		}

		valid = append(valid, product)
		stats.Loaded++
	}

	return valid, stats
}

// validVariant reports whether a variant carries the fields the Admin API
// requires on every variant row.
func validVariant(v models.BrandVariant) bool {
	return v.VariantTitle != "" && v.Price != "" && v.SKU != ""
}
