package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shopkeeper/internal/config"
	"shopkeeper/internal/models"
	"shopkeeper/internal/shopify"
	"shopkeeper/internal/syncer"
)

// adminREST simulates the Admin REST endpoints the sync path uses.
type adminREST struct {
	mu sync.Mutex

	existing     []shopify.RESTProduct
	created      []string
	updatedIDs   []int64
	inventory    map[int64]int
	publishCalls int
}

func (a *adminREST) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /products.json", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"products": a.existing})
	})

	mux.HandleFunc("POST /products.json", func(w http.ResponseWriter, r *http.Request) {
		var payload shopify.ProductPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode create payload: %v", err)
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		a.created = append(a.created, payload.Product.Title)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"product": {"id": %d}}`, 9000+len(a.created))
	})

	mux.HandleFunc("PUT /products/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Product map[string]interface{} `json:"product"`
		}

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode update payload: %v", err)
		}

		id, _ := payload.Product["id"].(float64)

		a.mu.Lock()
		defer a.mu.Unlock()

		if _, stamped := payload.Product["published_at"]; stamped && len(payload.Product) == 2 {
			a.publishCalls++
		} else {
			a.updatedIDs = append(a.updatedIDs, int64(id))
		}

		fmt.Fprint(w, `{"product": {}}`)
	})

	mux.HandleFunc("POST /inventory_levels/set.json", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			InventoryItemID int64 `json:"inventory_item_id"`
			Available       int   `json:"available"`
		}

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode inventory payload: %v", err)
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		a.inventory[payload.InventoryItemID] = payload.Available

		fmt.Fprint(w, `{"inventory_level": {}}`)
	})

	return mux
}

func writeBrandFile(t *testing.T, dir, brand string, products []models.BrandProduct) {
	t.Helper()

	data, err := json.Marshal(products)
	if err != nil {
		t.Fatalf("Failed to marshal brand file: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, brand+".json"), data, 0o644); err != nil {
		t.Fatalf("Failed to write brand file: %v", err)
	}
}

func TestSyncFlow_EndToEnd(t *testing.T) {
	api := &adminREST{
		existing: []shopify.RESTProduct{
			{
				ID:    111,
				Title: "Classic Hoodie",
				Variants: []shopify.RESTVariant{
					{ID: 1, ProductID: 111, SKU: "HOOD-M", InventoryItemID: 777},
				},
			},
		},
		inventory: make(map[int64]int),
	}

	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	retry := &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}

	client := shopify.NewRESTClient(server.URL, "shpat_test", retry, 1000, testLogger())

	s := syncer.NewSyncer(client, syncer.Options{
		LocationID: 42,
		CacheTTL:   300 * time.Second,
		Workers:    2,
	}, testLogger())

	dir := t.TempDir()

	writeBrandFile(t, dir, "pesoclo", []models.BrandProduct{
		{
			Title: "Classic Hoodie",
			Variants: []models.BrandVariant{
				{VariantTitle: "M", Price: "59.99", SKU: "HOOD-M", Available: true},
			},
		},
		{
			Title: "Fresh Tee",
			Variants: []models.BrandVariant{
				{VariantTitle: "L", Price: "29.99", SKU: "TEE-L", Available: true},
			},
		},
	})

	result := s.Run(context.Background(), []string{"pesoclo"}, dir)

	if result.FileFailures() != 0 {
		t.Fatalf("Expected no file failures, got %+v", result.Brands)
	}

	if result.TotalCreated() != 1 || result.TotalUpdated() != 1 || result.TotalFailed() != 0 {
		t.Fatalf("Expected 1 created / 1 updated, got %+v", result.Brands[0])
	}

	if len(api.created) != 1 || api.created[0] != "Fresh Tee" {
		t.Errorf("Expected 'Fresh Tee' created, got %v", api.created)
	}

	if len(api.updatedIDs) != 1 || api.updatedIDs[0] != 111 {
		t.Errorf("Expected product 111 updated, got %v", api.updatedIDs)
	}

	// The matched variant was available, so inventory is set to full
	// stock at the configured location.
	if got := api.inventory[777]; got != 1000 {
		t.Errorf("Expected inventory 1000 for item 777, got %d", got)
	}

	// The new product had no published_at and was stamped after create.
	if api.publishCalls != 1 {
		t.Errorf("Expected 1 publish call, got %d", api.publishCalls)
	}
}

func TestSyncFlow_BrokenBrandFileDoesNotStopOthers(t *testing.T) {
	api := &adminREST{inventory: make(map[int64]int)}

	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	retry := &config.RetryPolicy{MaxAttempts: 1, TimeoutSec: 5, BackoffMultiplier: 1.0}
	client := shopify.NewRESTClient(server.URL, "shpat_test", retry, 1000, testLogger())

	s := syncer.NewSyncer(client, syncer.Options{LocationID: 42, Workers: 1}, testLogger())

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	writeBrandFile(t, dir, "good", []models.BrandProduct{
		{
			Title: "Fresh Tee",
			Variants: []models.BrandVariant{
				{VariantTitle: "L", Price: "29.99", SKU: "TEE-L", Available: true},
			},
		},
	})

	result := s.Run(context.Background(), []string{"broken", "good"}, dir)

	if result.FileFailures() != 1 {
		t.Fatalf("Expected 1 file failure, got %d", result.FileFailures())
	}

	if result.TotalCreated() != 1 {
		t.Errorf("Expected the good brand to sync, got %+v", result.Brands)
	}
}
