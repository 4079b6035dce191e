package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/rephone-market/internal/config"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/oklog/ulid/v2"
)

// checkService is the imei.info service id for the basic IMEI check.
const checkService = "27"

// Client runs the two-step imei.info lookup: start a check, then poll the
// search history entry it created until the result is ready.
type Client struct {
	cfg   config.IMEIConfig
	hc    *http.Client
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg config.IMEIConfig) *Client {
	return &Client{
		cfg:   cfg,
		hc:    &http.Client{Timeout: 10 * time.Second},
		sleep: sleepCtx,
	}
}

type checkResponse struct {
	ULID string `json:"ulid"`
}

type historyResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) Lookup(ctx context.Context, imei string) (json.RawMessage, error) {
	handle, err := c.start(ctx, imei)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
		var h historyResponse
		if err := c.get(ctx, "/api/search_history/"+handle.String(), &h); err != nil {
			return nil, err
		}
		if ready(h.Result) {
			return h.Result, nil
		}
	}
	return nil, fmt.Errorf("%w: imei lookup %s not ready after %d polls", orders.ErrGatewayTimeout, handle, c.cfg.PollAttempts)
}

func (c *Client) start(ctx context.Context, imei string) (ulid.ULID, error) {
	q := url.Values{}
	q.Set("API_KEY", c.cfg.APIKey)
	q.Set("imei", imei)

	var resp checkResponse
	if err := c.get(ctx, "/api/check/"+checkService+"/?"+q.Encode(), &resp); err != nil {
		return ulid.ULID{}, err
	}
	handle, err := ulid.ParseStrict(resp.ULID)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("%w: bad lookup handle %q", orders.ErrGatewayRejected, resp.ULID)
	}
	return handle, nil
}

func ready(result json.RawMessage) bool {
	s := strings.TrimSpace(string(result))
	return s != "" && s != "null"
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		// the url.Error text carries the request URL, keep it out of the error
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return fmt.Errorf("%w: %v", orders.ErrGatewayTimeout, err)
		}
		return fmt.Errorf("%w: %v", orders.ErrGatewayRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: imei.info status %d", orders.ErrGatewayRejected, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode imei.info response: %v", orders.ErrGatewayRejected, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
