package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"shopkeeper/internal/catalog"
	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
	"shopkeeper/internal/shopify"
)

// StoreClient is the slice of the REST client the syncer needs.
type StoreClient interface {
	ListAllProducts(ctx context.Context) ([]shopify.RESTProduct, error)
	CreateProduct(ctx context.Context, payload *shopify.ProductPayload) (int64, error)
	UpdateProduct(ctx context.Context, id int64, payload *shopify.ProductPayload) error
	PublishProduct(ctx context.Context, id int64, publishedAt string) error
	SetInventoryLevel(ctx context.Context, locationID, inventoryItemID int64, available int) error
}

// Ensure RESTClient implements StoreClient.
var _ StoreClient = (*shopify.RESTClient)(nil)

// Options configures a Syncer.
type Options struct {
	LocationID int64
	CacheTTL   time.Duration
	Workers    int
}

// Syncer pushes brand catalog files into the store, matching existing
// products by first-variant SKU.
type Syncer struct {
	client  StoreClient
	loader  *catalog.Loader
	logger  *logger.Logger
	opts    Options
	nowFunc func() time.Time

	mu        sync.Mutex
	snapshot  []shopify.RESTProduct
	fetchedAt time.Time
}

// NewSyncer creates a new syncer instance.
func NewSyncer(client StoreClient, opts Options, log *logger.Logger) *Syncer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Syncer{
		client:  client,
		loader:  catalog.NewLoader(log),
		logger:  log,
		opts:    opts,
		nowFunc: time.Now,
	}
}

// BrandResult sums one brand file's outcome.
type BrandResult struct {
	Brand   string
	Stats   *catalog.LoadStats
	Created int
	Updated int
	Failed  int
	Errors  []error
	Err     error
}

// Result contains per-brand outcomes of a sync run.
type Result struct {
	Brands []BrandResult
}

// TotalCreated sums created products across brands.
func (r *Result) TotalCreated() int {
	total := 0
	for _, b := range r.Brands {
		total += b.Created
	}

	return total
}

// TotalUpdated sums updated products across brands.
func (r *Result) TotalUpdated() int {
	total := 0
	for _, b := range r.Brands {
		total += b.Updated
	}

	return total
}

// TotalFailed sums per-product failures across brands.
func (r *Result) TotalFailed() int {
	total := 0
	for _, b := range r.Brands {
		total += b.Failed
	}

	return total
}

// FileFailures counts brand files that could not be processed at all.
func (r *Result) FileFailures() int {
	total := 0

	for _, b := range r.Brands {
		if b.Err != nil {
			total++
		}
	}

	return total
}

// Run syncs every listed brand in order. The product snapshot is
// force-refreshed after each brand file so later files see what earlier
// ones created.
func (s *Syncer) Run(ctx context.Context, brands []string, brandDir string) *Result {
	result := &Result{}

	for _, brand := range brands {
		path := filepath.Join(brandDir, brand+".json")

		res := s.SyncBrand(ctx, brand, path)
		result.Brands = append(result.Brands, res)

		if res.Err != nil {
			s.logger.Error(fmt.Sprintf("Brand %s failed: %v", brand, res.Err))

			continue
		}

		if _, err := s.existingProducts(ctx, true); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to refresh product snapshot: %v", err))
		}
	}

	return result
}

// SyncBrand pushes one brand file. Per-product failures are counted and
// never halt the file; a load failure aborts this brand only.
func (s *Syncer) SyncBrand(ctx context.Context, brand, path string) BrandResult {
	res := BrandResult{Brand: brand}

	products, stats, err := s.loader.LoadFile(path)
	if err != nil {
		res.Err = err

		return res
	}

	res.Stats = stats

	s.logger.Info(fmt.Sprintf("Processing %s with %d products...", brand, len(products)))

	existing, err := s.existingProducts(ctx, false)
	if err != nil {
		res.Err = err

		return res
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.opts.Workers)
	)

	for _, product := range products {
		wg.Add(1)

		go func(p models.BrandProduct) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			created, err := s.pushProduct(ctx, p, existing)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.logger.Error(fmt.Sprintf("Failed to process product %s: %v", p.Title, err))
				res.Failed++
				res.Errors = append(res.Errors, err)

				return
			}

			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}(product)
	}

	wg.Wait()

	s.logger.Info(fmt.Sprintf("%d/%d products from %s processed", res.Created+res.Updated, len(products), brand))

	return res
}

// existingProducts returns the cached product snapshot, refreshing it when
// forced, absent or older than the TTL.
func (s *Syncer) existingProducts(ctx context.Context, force bool) ([]shopify.RESTProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && s.snapshot != nil && time.Since(s.fetchedAt) <= s.opts.CacheTTL {
		return s.snapshot, nil
	}

	s.logger.Info("Refreshing product snapshot...")

	products, err := s.client.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh product snapshot: %w", err)
	}

	s.snapshot = products
	s.fetchedAt = time.Now()

	return products, nil
}

// pushProduct creates or updates one brand product. Returns true when a
// new product was created.
func (s *Syncer) pushProduct(ctx context.Context, product models.BrandProduct, existing []shopify.RESTProduct) (bool, error) {
	match, matchVariant, found := findBySKU(existing, product.FirstSKU())

	if found {
		s.logger.Info(fmt.Sprintf("Product '%s' already exists. Updating...", product.Title))

		available := 0
		if product.Variants[0].Available {
			available = defaultStockLevel
		}

		if err := s.client.SetInventoryLevel(ctx, s.opts.LocationID, matchVariant.InventoryItemID, available); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to update inventory for variant %s: %v", matchVariant.SKU, err))
		} else {
			s.logger.Info(fmt.Sprintf("Inventory updated for variant %s", matchVariant.SKU))
		}

		payload := BuildProductPayload(product, s.nowFunc(), s.logger)
		payload.Product.ID = match.ID

		if err := s.client.UpdateProduct(ctx, match.ID, payload); err != nil {
			return false, fmt.Errorf("failed to update product %q: %w", product.Title, err)
		}

		return false, nil
	}

	s.logger.Info(fmt.Sprintf("Product '%s' does not exist yet. Creating...", product.Title))

	payload := BuildProductPayload(product, s.nowFunc(), s.logger)

	id, err := s.client.CreateProduct(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("failed to create product %q: %w", product.Title, err)
	}

	// The source never carried a publication date, so stamp the created
	// product explicitly.
	if product.PublishedAt == "" {
		if err := s.client.PublishProduct(ctx, id, s.nowFunc().Format(time.RFC3339)); err != nil {
			s.logger.Warn(fmt.Sprintf("Failed to set published_at for '%s': %v", product.Title, err))
		}
	}

	return true, nil
}

// findBySKU scans the store snapshot for a variant with the given SKU.
func findBySKU(products []shopify.RESTProduct, sku string) (*shopify.RESTProduct, *shopify.RESTVariant, bool) {
	if sku == "" {
		return nil, nil, false
	}

	for i := range products {
		for j := range products[i].Variants {
			if products[i].Variants[j].SKU == sku {
				return &products[i], &products[i].Variants[j], true
			}
		}
	}

	return nil, nil, false
}
