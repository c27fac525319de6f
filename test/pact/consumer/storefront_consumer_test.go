//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	pacttest "github.com/Th0mes/ignite-cart/test/pact"
)

type cartItemPayload struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type cartPayload struct {
	Cart struct {
		Items    []cartItemPayload `json:"items"`
		Quantity int               `json:"quantity"`
		Total    string            `json:"total"`
	} `json:"cart"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
}

func TestStorefrontContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.StorefrontName,
		Provider: pacttest.CartProvider,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	cartWithProduct := matchers.Map{
		"cart": matchers.Map{
			"items": matchers.ArrayMinLike(matchers.Map{
				"id":     matchers.Like(pacttest.StockedProductID),
				"title":  matchers.Like("Tênis de Caminhada Leve Confortável"),
				"price":  matchers.Like("179.90"),
				"amount": matchers.Like(1),
			}, 1),
			"quantity": matchers.Like(1),
			"total":    matchers.Term("179.90", `^\d+\.\d{2}$`),
		},
	}

	pact.AddInteraction().
		Given(pacttest.StateCartEmpty).
		UponReceiving("a request to add product 1 to the cart").
		WithRequest("POST", fmt.Sprintf("/v1/cart/items/%d", pacttest.StockedProductID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Cart-Session", matchers.S(pacttest.SessionID))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(cartWithProduct)
		})

	pact.AddInteraction().
		Given(pacttest.StateCartHasProduct).
		UponReceiving("a request to show the cart").
		WithRequest("GET", "/v1/cart", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Cart-Session", matchers.S(pacttest.SessionID))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(cartWithProduct)
		})

	pact.AddInteraction().
		Given(pacttest.StateCartEmpty).
		UponReceiving("a request to add a product with a malformed id").
		WithRequest("POST", "/v1/cart/items/abc", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Cart-Session", matchers.S(pacttest.SessionID))
		}).
		WillRespondWith(http.StatusBadRequest, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/validation-error"),
				"status": matchers.Like(http.StatusBadRequest),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		baseURL := fmt.Sprintf("http://%s:%d", host, config.Port)
		client := &http.Client{Timeout: 10 * time.Second}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var added cartPayload
		status, err := call(ctx, client, http.MethodPost, fmt.Sprintf("%s/v1/cart/items/%d", baseURL, pacttest.StockedProductID), &added)
		if err != nil {
			return err
		}
		if status != http.StatusOK || len(added.Cart.Items) == 0 {
			return fmt.Errorf("add: unexpected status %d or empty cart", status)
		}

		var shown cartPayload
		if _, err := call(ctx, client, http.MethodGet, baseURL+"/v1/cart", &shown); err != nil {
			return err
		}
		if shown.Cart.Items[0].ID != pacttest.StockedProductID {
			return fmt.Errorf("expected product %d, got %+v", pacttest.StockedProductID, shown.Cart.Items)
		}

		var problem problemDetail
		status, err = call(ctx, client, http.MethodPost, baseURL+"/v1/cart/items/abc", &problem)
		if err != nil {
			return err
		}
		if status != http.StatusBadRequest || problem.Status != http.StatusBadRequest {
			return fmt.Errorf("expected 400 problem, got %d", status)
		}
		return nil
	})
	require.NoError(t, err)
}

func call(ctx context.Context, client *http.Client, method, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Cart-Session", pacttest.SessionID)
	res, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.StatusCode, fmt.Errorf("decode %s %s: %w", method, url, err)
	}
	return res.StatusCode, nil
}
