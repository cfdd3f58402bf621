// Package syncer pushes scraped brand catalogs into the store.
package syncer

import (
	"fmt"
	"time"

	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
	"shopkeeper/internal/shopify"
)

// defaultStockLevel is the quantity written for an available variant.
// Unavailable variants are zeroed.
const defaultStockLevel = 1000

// timestampLayouts are the accepted forms for brand file date fields.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// validTimestamp reports whether the value parses under any accepted
// layout. The original string is forwarded unchanged when it does.
func validTimestamp(value string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}

	return false
}

// BuildProductPayload converts a brand product into the Admin REST payload.
//
// Every product gets a single "Size" option. published_at falls back to now
// when the source has none; a present but malformed value is dropped with a
// warning and the product stays unpublished. Image URLs are collected once
// across all variants, keeping first-seen order.
func BuildProductPayload(product models.BrandProduct, now time.Time, log *logger.Logger) *shopify.ProductPayload {
	fields := shopify.ProductFields{
		Title:    product.Title,
		BodyHTML: product.BodyHTML,
		Options:  []shopify.ProductOption{{Name: "Size"}},
	}

	switch {
	case product.PublishedAt == "":
		fields.PublishedAt = now.Format(time.RFC3339)
		log.Info(fmt.Sprintf("published_at missing for '%s', defaulting to now", product.Title))
	case validTimestamp(product.PublishedAt):
		fields.PublishedAt = product.PublishedAt
	default:
		log.Warn(fmt.Sprintf("Invalid published_at format '%s', dropping field", product.PublishedAt))
	}

	fields.Vendor = product.Vendor
	fields.ProductType = product.ProductType
	fields.Tags = product.Tags
	fields.Handle = product.Handle

	if product.CreatedAt != "" {
		if validTimestamp(product.CreatedAt) {
			fields.CreatedAt = product.CreatedAt
		} else {
			log.Warn(fmt.Sprintf("Invalid date format for created_at, skipping: %s", product.CreatedAt))
		}
	}

	if product.UpdatedAt != "" {
		if validTimestamp(product.UpdatedAt) {
			fields.UpdatedAt = product.UpdatedAt
		} else {
			log.Warn(fmt.Sprintf("Invalid date format for updated_at, skipping: %s", product.UpdatedAt))
		}
	}

	fields.Images = collectImages(product.Variants)

	for _, variant := range product.Variants {
		quantity := 0
		if variant.Available {
			quantity = defaultStockLevel
		}

		fields.Variants = append(fields.Variants, shopify.VariantPayload{
			Option1:             variant.VariantTitle,
			Price:               variant.Price,
			SKU:                 variant.SKU,
			InventoryQuantity:   quantity,
			InventoryManagement: "shopify",
			InventoryPolicy:     "deny",
			Barcode:             variant.Barcode,
			Weight:              variant.Weight,
			WeightUnit:          variant.WeightUnit,
			Taxable:             variant.Taxable,
		})
	}

	return &shopify.ProductPayload{Product: fields}
}

// collectImages gathers each image URL once across all variants.
func collectImages(variants []models.BrandVariant) []shopify.ImagePayload {
	seen := make(map[string]bool)

	var images []shopify.ImagePayload

	for _, variant := range variants {
		for _, url := range variant.Images {
			if seen[url] {
				continue
			}

			seen[url] = true

			images = append(images, shopify.ImagePayload{Src: url})
		}
	}

	return images
}
