package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ariefcatur/rephone-market/internal/config"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/shopspring/decimal"
)

var (
	ErrGatewayTimeout  = orders.ErrGatewayTimeout
	ErrGatewayRejected = orders.ErrGatewayRejected
)

const currency = "PKR"

// Gateway opens hosted checkout sessions with Safepay.
type Gateway struct {
	cfg         config.SafepayConfig
	frontendURL string
	hc          *http.Client
}

func NewGateway(cfg config.SafepayConfig, frontendURL string) *Gateway {
	return &Gateway{
		cfg:         cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		hc:          &http.Client{Timeout: cfg.Timeout},
	}
}

type sessionRequest struct {
	MerchantAPIKey string            `json:"merchant_api_key"`
	Intent         string            `json:"intent"`
	Mode           string            `json:"mode"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
}

type sessionResponse struct {
	Data struct {
		Tracker struct {
			Token string `json:"token"`
		} `json:"tracker"`
	} `json:"data"`
}

type passportResponse struct {
	Data string `json:"data"`
}

// MinorUnits converts a rupee amount to paisa, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// OpenSession sets up a payment session for the order and returns the hosted
// checkout URL the buyer is redirected to.
func (g *Gateway) OpenSession(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	var sess sessionResponse
	err := g.post(ctx, "/order/payments/v3/", sessionRequest{
		MerchantAPIKey: g.cfg.APIKey,
		Intent:         "CYBERSOURCE",
		Mode:           "payment",
		Amount:         MinorUnits(amount),
		Currency:       currency,
		Metadata:       map[string]string{"order_id": orderID, "source": "rephone"},
	}, &sess)
	if err != nil {
		return "", fmt.Errorf("session setup: %w", err)
	}
	tracker := sess.Data.Tracker.Token
	if tracker == "" {
		return "", fmt.Errorf("%w: session setup returned no tracker", ErrGatewayRejected)
	}

	var pass passportResponse
	if err := g.post(ctx, "/client/passport/v1/token", nil, &pass); err != nil {
		return "", fmt.Errorf("passport token: %w", err)
	}
	if pass.Data == "" {
		return "", fmt.Errorf("%w: passport returned no token", ErrGatewayRejected)
	}

	return g.checkoutURL(orderID, tracker, pass.Data), nil
}

func (g *Gateway) checkoutURL(orderID, tracker, token string) string {
	q := url.Values{}
	q.Set("env", g.cfg.Env)
	q.Set("tracker", tracker)
	q.Set("tbt", token)
	q.Set("environment", g.cfg.Env)
	q.Set("source", "rephone")
	q.Set("orderId", orderID)
	q.Set("cancelUrl", g.frontendURL+"/payment-cancel/"+orderID)
	q.Set("redirectUrl", g.frontendURL)
	q.Set("webhooks", "true")
	return strings.TrimRight(g.cfg.CheckoutURL, "/") + "/embedded/?" + q.Encode()
}

func (g *Gateway) post(ctx context.Context, path string, body any, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-SFPY-MERCHANT-SECRET", g.cfg.SecretKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrGatewayRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: provider status %d", ErrGatewayRejected, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGatewayRejected, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
