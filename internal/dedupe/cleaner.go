package dedupe

import (
	"errors"
	"fmt"
	"strings"

	"shopkeeper/internal/logger"
	"shopkeeper/internal/models"
	"shopkeeper/internal/shopify"
)

// ErrDeleteRejected is returned when a productDelete mutation succeeds at
// the transport level but reports userErrors.
var ErrDeleteRejected = errors.New("delete rejected")

// Cleaner fetches the product catalog and deletes duplicate products.
// The whole pass is sequential: one request in flight at a time.
type Cleaner struct {
	client   shopify.Client
	logger   *logger.Logger
	pageSize int
	dryRun   bool
}

// NewCleaner creates a cleaner talking to the given Admin endpoint.
func NewCleaner(endpoint, token string, pageSize int, log *logger.Logger) *Cleaner {
	return &Cleaner{
		client:   shopify.NewGraphQLClient(endpoint, token, log),
		logger:   log,
		pageSize: pageSize,
	}
}

// NewCleanerWithClient creates a cleaner with a custom client (useful for testing).
func NewCleanerWithClient(client shopify.Client, pageSize int, log *logger.Logger) *Cleaner {
	return &Cleaner{
		client:   client,
		logger:   log,
		pageSize: pageSize,
	}
}

// SetDryRun makes Run record deletions without issuing them.
func (c *Cleaner) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// Deletion records the outcome for one deletion candidate.
type Deletion struct {
	Product  models.Product
	GroupKey string
	Err      error
}

// RunResult contains the results of a cleanup run.
type RunResult struct {
	TotalProducts int
	Groups        []DuplicateGroup
	Deleted       []Deletion
	Failed        []Deletion
	DryRun        bool
}

// FetchAllProducts pages through the catalog until the API reports no next
// page. Any request failure aborts the fetch: deleting against a partial
// listing could remove a product whose newer copy was never seen.
func (c *Cleaner) FetchAllProducts() ([]models.Product, error) {
	var all []models.Product

	cursor := ""

	for {
		page, err := shopify.FetchProductPage(c.client, c.pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products after %d: %w", len(all), err)
		}

		all = append(all, page.Products...)
		c.logger.Debug("Fetched product page", "count", len(page.Products), "total", len(all))

		if !page.HasNextPage {
			break
		}

		cursor = page.EndCursor
	}

	return all, nil
}

// Run executes one cleanup pass: fetch everything, group by normalized
// title, delete the older copies. Fetch failures abort the run; deletion
// failures are recorded and the loop continues.
func (c *Cleaner) Run() (*RunResult, error) {
	products, err := c.FetchAllProducts()
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		TotalProducts: len(products),
		Groups:        FindDuplicates(products),
		DryRun:        c.dryRun,
	}

	c.logger.Info("Catalog fetched",
		"products", len(products),
		"duplicateTitles", len(result.Groups),
	)

	if len(result.Groups) == 0 {
		return result, nil
	}

	for _, group := range result.Groups {
		keeper := group.Keeper()
		c.logger.Info("Duplicate title",
			"title", keeper.Title,
			"copies", len(group.Products),
			"keeping", keeper.ID,
		)

		for _, candidate := range group.Candidates() {
			result.record(c.delete(candidate, group.Key))
		}
	}

	return result, nil
}

// delete issues one productDelete for the candidate, mapping userErrors to
// ErrDeleteRejected. In dry-run mode nothing is sent.
func (c *Cleaner) delete(candidate models.Product, groupKey string) Deletion {
	deletion := Deletion{Product: candidate, GroupKey: groupKey}

	if c.dryRun {
		c.logger.Info("Would delete product",
			"id", candidate.ID,
			"title", candidate.Title,
			"createdAt", candidate.CreatedAt,
		)

		return deletion
	}

	res, err := shopify.DeleteProduct(c.client, candidate.ID)

	switch {
	case err != nil:
		deletion.Err = err
	case len(res.UserErrors) > 0:
		for _, ue := range res.UserErrors {
			c.logger.Error("Delete rejected",
				"id", candidate.ID,
				"field", strings.Join(ue.Field, "."),
				"message", ue.Message,
			)
		}

		deletion.Err = userErrorsToError(res.UserErrors)
	}

	if deletion.Err != nil {
		c.logger.Error("Failed to delete product",
			"id", candidate.ID,
			"title", candidate.Title,
			"error", deletion.Err,
		)

		return deletion
	}

	c.logger.Info("Deleted product",
		"id", candidate.ID,
		"title", candidate.Title,
		"createdAt", candidate.CreatedAt,
	)

	return deletion
}

func (r *RunResult) record(d Deletion) {
	if d.Err != nil {
		r.Failed = append(r.Failed, d)

		return
	}

	r.Deleted = append(r.Deleted, d)
}

func userErrorsToError(userErrors []models.UserError) error {
	first := userErrors[0]
	if len(first.Field) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrDeleteRejected, strings.Join(first.Field, "."), first.Message)
	}

	return fmt.Errorf("%w: %s", ErrDeleteRejected, first.Message)
}
