package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/rephone-market/internal/config"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIMEI   = "356938035643809"
	testHandle = "01HZX3K7Q9V4T2M8N6P5R1S0AB"
)

func newTestClient(baseURL string, attempts int) *Client {
	c := NewClient(config.IMEIConfig{BaseURL: baseURL, APIKey: "key-1", PollAttempts: attempts, PollInterval: time.Second})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestLookup_PollsUntilReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/check/27/":
			assert.Equal(t, "key-1", r.URL.Query().Get("API_KEY"))
			assert.Equal(t, testIMEI, r.URL.Query().Get("imei"))
			_, _ = w.Write([]byte(`{"ulid":"` + testHandle + `"}`))
		case "/api/search_history/" + testHandle:
			if polls.Add(1) < 3 {
				_, _ = w.Write([]byte(`{"status":"processing","result":null}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"done","result":{"blacklisted":false}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 5).Lookup(context.Background(), testIMEI)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blacklisted":false}`, string(res))
	assert.Equal(t, int32(3), polls.Load())
}

func TestLookup_GivesUpAfterAttempts(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/check/27/" {
			_, _ = w.Write([]byte(`{"ulid":"` + testHandle + `"}`))
			return
		}
		polls.Add(1)
		_, _ = w.Write([]byte(`{"status":"processing"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Lookup(context.Background(), testIMEI)
	assert.ErrorIs(t, err, orders.ErrGatewayTimeout)
	assert.Equal(t, int32(2), polls.Load())
}

func TestLookup_BadHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ulid":"not-a-ulid"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Lookup(context.Background(), testIMEI)
	assert.ErrorIs(t, err, orders.ErrGatewayRejected)
}

func TestLookup_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Lookup(context.Background(), testIMEI)
	assert.ErrorIs(t, err, orders.ErrGateway)
}
