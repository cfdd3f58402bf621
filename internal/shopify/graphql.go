// Package shopify provides client functionality for the Shopify Admin API.
package shopify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopkeeper/internal/logger"
)

// GraphQL errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrGraphQLError         = errors.New("graphql error")
	ErrNoData               = errors.New("no data in response")
)

// Client defines the interface for Admin GraphQL communication.
type Client interface {
	Execute(query string, variables map[string]interface{}) (*GraphQLResponse, error)
}

// Ensure GraphQLClient implements Client.
var _ Client = (*GraphQLClient)(nil)

// GraphQLClient handles GraphQL communication with the Admin API.
type GraphQLClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logger.Logger
}

// GraphQLRequest represents a GraphQL request.
type GraphQLRequest struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
	Query     string                 `json:"query"`
}

// GraphQLResponse represents a GraphQL response.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error.
type GraphQLError struct {
	Message   string `json:"message"`
	Locations []struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"locations,omitempty"`
	Path []interface{} `json:"path,omitempty"`
}

// NewGraphQLClient creates a new GraphQL client for the given Admin
// endpoint. The token is sent as X-Shopify-Access-Token on every request.
func NewGraphQLClient(endpoint, token string, log *logger.Logger) *GraphQLClient {
	return &GraphQLClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// Execute sends a GraphQL request and returns the response.
func (c *GraphQLClient) Execute(query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf("Executing GraphQL query: %s...", query[:min(len(query), 50)]))
	}

	reqBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Limit response size to 10MB
	reader := io.LimitReader(resp.Body, 10*1024*1024)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Error(fmt.Sprintf("GraphQL request failed with status %d: %s", resp.StatusCode, string(body)))
		}
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(body))
	}

	var gqlResp GraphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return &gqlResp, fmt.Errorf("%w: %s", ErrGraphQLError, gqlResp.Errors[0].Message)
	}

	return &gqlResp, nil
}

// UnmarshalGraphQLData unmarshals the response data into the target struct.
func UnmarshalGraphQLData[T any](resp *GraphQLResponse) (*T, error) {
	if resp == nil || resp.Data == nil {
		return nil, ErrNoData
	}
	var target T
	if err := json.Unmarshal(resp.Data, &target); err != nil {
		return nil, fmt.Errorf("failed to parse response data: %w", err)
	}
	return &target, nil
}

// ListProductsQuery pages through the product catalog by cursor.
const ListProductsQuery = `
query ListProducts($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        handle
        vendor
        status
        createdAt
      }
    }
  }
}
`

// DeleteProductMutation deletes a product by global id.
const DeleteProductMutation = `
mutation DeleteProduct($input: ProductDeleteInput!) {
  productDelete(input: $input) {
    deletedProductId
    userErrors {
      field
      message
    }
  }
}
`

// ShopInfoQuery returns the identity of the connected store.
const ShopInfoQuery = `
query ShopInfo {
  shop {
    name
    myshopifyDomain
    currencyCode
  }
}
`

// FirstProductQuery asks for a single product to prove the token carries
// read_products scope.
const FirstProductQuery = `
query FirstProduct {
  products(first: 1) {
    edges {
      node {
        id
      }
    }
  }
}
`
