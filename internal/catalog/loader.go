package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
)

// Loader reads brand catalog files from disk.
type Loader struct {
	validator *Validator
	logger    *logger.Logger
}

// NewLoader creates a new loader instance.
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{
		validator: NewValidator(log),
		logger:    log,
	}
}

// LoadFile reads one brand file and returns its valid products. A file
// that cannot be read or parsed aborts that brand only; the caller moves
// on to the next one.
func (l *Loader) LoadFile(path string) ([]models.BrandProduct, *LoadStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read brand file: %w", err)
	}

	var products []models.BrandProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, nil, fmt.Errorf("failed to parse brand file %s: %w", path, err)
	}

	valid, stats := l.validator.Validate(products)

	l.logger.Info("Brand file loaded",
		"path", path,
		"total", stats.Total,
		"loaded", stats.Loaded,
		"skippedInvalid", stats.SkippedInvalid,
		"skippedNoStock", stats.SkippedNoStock,
		"variantsDropped", stats.VariantsDropped,
	)

	return valid, stats, nil
}
