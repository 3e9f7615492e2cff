// Package razorpay wraps the Razorpay SDK for order creation and payment
// signature checks.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
)

const defaultCurrency = "INR"

var errCredentialsRequired = errors.New("razorpay key id and secret are required")

// Order is the gateway order handle returned by CreateOrder.
type Order struct {
	ID       string
	Entity   string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// CreateOrderInput is the create-order request. Amount is in paise.
type CreateOrderInput struct {
	Amount         int64
	Currency       string
	Receipt        string
	PaymentCapture int
}

// orderCreator is the slice of the SDK order resource the client uses.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	sdk       *rzp.Client
	orders    orderCreator
	keyID     string
	keySecret string
	currency  string
}

// NewClient builds the SDK client from config. httpClient, when set, replaces
// the SDK's default transport.
func NewClient(cfg config.RazorpayConfig, httpClient *http.Client) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errCredentialsRequired
	}

	sdk := rzp.NewClient(keyID, keySecret)
	if httpClient != nil {
		sdk.Request.HTTPClient = httpClient
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		sdk.Request.BaseURL = base
	}

	currency := cfg.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return &Client{
		sdk:       sdk,
		orders:    sdk.Order,
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
	}, nil
}

// KeyID returns the publishable key handed to checkout clients.
func (c *Client) KeyID() string {
	return c.keyID
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	return c.currency
}

// CreateOrder registers an order with the gateway. The SDK call is not
// cancellable; ctx only bounds how long the caller waits for it.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if input.Currency == "" {
		input.Currency = c.currency
	}
	payload := map[string]interface{}{
		"amount":          input.Amount,
		"currency":        input.Currency,
		"receipt":         input.Receipt,
		"payment_capture": input.PaymentCapture,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := c.orders.Create(payload, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay create order: %w", res.err)
		}
		return decodeOrder(res.body)
	}
}

// VerifyPaymentSignature checks the checkout signature for orderID and paymentID.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

// VerifySignature reports whether signature is the gateway's HMAC of
// orderID|paymentID under secret. Empty inputs never verify.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, strings.ToLower(signature), secret)
}

func decodeOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response has no order id")
	}
	order := &Order{ID: id}
	order.Entity, _ = body["entity"].(string)
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Status, _ = body["status"].(string)
	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}
	return order, nil
}
