package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront-go/internal/config"
	"storefront-go/internal/metrics"
)

// ErrUnauthenticated means the platform rejected the presented access
// token. Any other error from this package is a transport or upstream
// failure and says nothing about token validity.
var ErrUnauthenticated = errors.New("access token rejected by customer api")

// Service fetches customer-owned data from the Customer Account API with a
// bearer access token. It holds no per-customer state.
type Service struct {
	graphqlURL string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewService creates a Service from validated configuration.
func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		graphqlURL: cfg.Auth.APIURL + "/graphql",
		httpClient: &http.Client{Timeout: cfg.Upstream.Timeout.Duration},
		logger:     logger.With().Str("component", "customer").Logger(),
	}
}

const customerQuery = `
query {
  customer {
    id
    email
    firstName
    lastName
  }
}`

const ordersQuery = `
query {
  customer {
    orders(first: 20) {
      edges {
        node {
          id
          name
          processedAt
          totalPrice {
            amount
            currencyCode
          }
          fulfillmentStatus
          lineItems(first: 10) {
            edges {
              node {
                title
                quantity
                variant {
                  image {
                    url
                    altText
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// GetCustomer fetches the authenticated customer's profile.
func (s *Service) GetCustomer(ctx context.Context, accessToken string) (*Customer, error) {
	var payload struct {
		Customer *Customer `json:"customer"`
	}
	if err := s.query(ctx, "customer", accessToken, customerQuery, &payload); err != nil {
		return nil, err
	}
	if payload.Customer == nil {
		return nil, fmt.Errorf("customer api returned no customer object")
	}
	return payload.Customer, nil
}

// GetOrders fetches up to 20 of the customer's orders, each with up to 10
// line items. The platform's edges/node envelopes are unwrapped into flat
// slices.
func (s *Service) GetOrders(ctx context.Context, accessToken string) ([]Order, error) {
	var payload struct {
		Customer *struct {
			Orders struct {
				Edges []struct {
					Node struct {
						ID                string `json:"id"`
						Name              string `json:"name"`
						ProcessedAt       string `json:"processedAt"`
						TotalPrice        Money  `json:"totalPrice"`
						FulfillmentStatus string `json:"fulfillmentStatus"`
						LineItems         struct {
							Edges []struct {
								Node struct {
									Title    string `json:"title"`
									Quantity int    `json:"quantity"`
									Variant  *struct {
										Image *Image `json:"image"`
									} `json:"variant"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"lineItems"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"orders"`
		} `json:"customer"`
	}
	if err := s.query(ctx, "orders", accessToken, ordersQuery, &payload); err != nil {
		return nil, err
	}
	if payload.Customer == nil {
		return nil, fmt.Errorf("customer api returned no customer object")
	}

	orders := make([]Order, 0, len(payload.Customer.Orders.Edges))
	for _, edge := range payload.Customer.Orders.Edges {
		node := edge.Node
		order := Order{
			ID:                node.ID,
			Name:              node.Name,
			ProcessedAt:       node.ProcessedAt,
			TotalPrice:        node.TotalPrice,
			FulfillmentStatus: node.FulfillmentStatus,
		}
		for _, itemEdge := range node.LineItems.Edges {
			item := LineItem{
				Title:    itemEdge.Node.Title,
				Quantity: itemEdge.Node.Quantity,
			}
			if itemEdge.Node.Variant != nil {
				item.Image = itemEdge.Node.Variant.Image
			}
			order.LineItems = append(order.LineItems, item)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Check verifies a stored token by fetching the customer profile. It is the
// capability check behind protected routes: ErrUnauthenticated means the
// token is dead and may be evicted; any other error is a transient upstream
// failure and the caller should deny the request without evicting.
func (s *Service) Check(ctx context.Context, accessToken string) (*Customer, error) {
	return s.GetCustomer(ctx, accessToken)
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// query POSTs a GraphQL document and decodes the data envelope into out.
func (s *Service) query(ctx context.Context, name, accessToken, document string, out interface{}) error {
	body, err := json.Marshal(map[string]string{"query": document})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building graphql request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestFailures.WithLabelValues(name).Inc()
		return fmt.Errorf("customer api request %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		metrics.UpstreamRequestFailures.WithLabelValues(name).Inc()
		s.logger.Debug().Int("status", resp.StatusCode).Str("query", name).Msg("customer api rejected token")
		return fmt.Errorf("customer api returned status %d: %w", resp.StatusCode, ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestFailures.WithLabelValues(name).Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Warn().Int("status", resp.StatusCode).Str("query", name).
			Str("body", string(detail)).Msg("customer api request failed")
		return fmt.Errorf("customer api returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.UpstreamRequestFailures.WithLabelValues(name).Inc()
		return fmt.Errorf("decoding graphql response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		metrics.UpstreamRequestFailures.WithLabelValues(name).Inc()
		first := envelope.Errors[0]
		if isAuthError(first) {
			return fmt.Errorf("graphql error %q: %w", first.Message, ErrUnauthenticated)
		}
		return fmt.Errorf("graphql error: %s", first.Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding graphql data: %w", err)
	}
	return nil
}

func isAuthError(e graphqlError) bool {
	switch e.Extensions.Code {
	case "UNAUTHENTICATED", "UNAUTHORIZED", "ACCESS_DENIED":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "unauthorized") ||
		strings.Contains(strings.ToLower(e.Message), "unauthenticated")
}
