package shopify

import (
	"fmt"

	"shopkeeper/internal/models"
)

// productsData mirrors the products query payload.
type productsData struct {
	Products struct {
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Edges []struct {
			Node models.Product `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// deleteData mirrors the productDelete mutation payload.
type deleteData struct {
	ProductDelete struct {
		DeletedProductID string             `json:"deletedProductId"`
		UserErrors       []models.UserError `json:"userErrors"`
	} `json:"productDelete"`
}

// shopData mirrors the shop query payload.
type shopData struct {
	Shop ShopInfo `json:"shop"`
}

// ShopInfo identifies the connected store.
type ShopInfo struct {
	Name            string `json:"name"`
	MyshopifyDomain string `json:"myshopifyDomain"`
	CurrencyCode    string `json:"currencyCode"`
}

// DeleteResult is the outcome of one productDelete mutation.
type DeleteResult struct {
	DeletedProductID string
	UserErrors       []models.UserError
}

// FetchProductPage requests one page of products starting after the cursor.
// An empty cursor requests the first page.
func FetchProductPage(c Client, first int, after string) (*models.ProductPage, error) {
	variables := map[string]interface{}{
		"first": first,
	}
	if after != "" {
		variables["after"] = after
	}

	resp, err := c.Execute(ListProductsQuery, variables)
	if err != nil {
		return nil, fmt.Errorf("products query failed: %w", err)
	}

	data, err := UnmarshalGraphQLData[productsData](resp)
	if err != nil {
		return nil, err
	}

	page := &models.ProductPage{
		EndCursor:   data.Products.PageInfo.EndCursor,
		HasNextPage: data.Products.PageInfo.HasNextPage,
	}
	for _, edge := range data.Products.Edges {
		page.Products = append(page.Products, edge.Node)
	}

	return page, nil
}

// DeleteProduct issues a productDelete mutation for the given global id.
// Mutation userErrors are part of the result, not an error: the caller
// decides whether they halt anything.
func DeleteProduct(c Client, id string) (*DeleteResult, error) {
	resp, err := c.Execute(DeleteProductMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"id": id,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("productDelete failed: %w", err)
	}

	data, err := UnmarshalGraphQLData[deleteData](resp)
	if err != nil {
		return nil, err
	}

	return &DeleteResult{
		DeletedProductID: data.ProductDelete.DeletedProductID,
		UserErrors:       data.ProductDelete.UserErrors,
	}, nil
}

// FetchShopInfo returns the identity of the store the token belongs to.
func FetchShopInfo(c Client) (*ShopInfo, error) {
	resp, err := c.Execute(ShopInfoQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("shop query failed: %w", err)
	}

	data, err := UnmarshalGraphQLData[shopData](resp)
	if err != nil {
		return nil, err
	}

	return &data.Shop, nil
}

// CheckProductReadScope runs a minimal products query to verify the token
// carries read_products scope.
func CheckProductReadScope(c Client) error {
	if _, err := c.Execute(FirstProductQuery, nil); err != nil {
		return fmt.Errorf("product read check failed: %w", err)
	}

	return nil
}
