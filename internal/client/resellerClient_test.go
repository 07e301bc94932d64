package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/King12-D/hypegrow-boost/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReseller(t *testing.T, h http.HandlerFunc) ResellerClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewResellerClient(&config.Reseller{
		BaseApiURL: srv.URL,
		APIKey:     "secret-key",
	})
}

func TestResellerAddOrderSendsForm(t *testing.T) {
	c := newTestReseller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())

		assert.Equal(t, "secret-key", r.PostForm.Get("key"))
		assert.Equal(t, "add", r.PostForm.Get("action"))
		assert.Equal(t, "42", r.PostForm.Get("service"))
		assert.Equal(t, "https://instagram.com/p/abc", r.PostForm.Get("link"))
		assert.Equal(t, "500", r.PostForm.Get("quantity"))

		_, _ = w.Write([]byte(`{"order": 9001}`))
	})

	id, err := c.AddOrder(context.Background(), 42, "https://instagram.com/p/abc", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), id)
}

func TestResellerErrorBody(t *testing.T) {
	c := newTestReseller(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Not enough funds on balance"}`))
	})

	_, err := c.AddOrder(context.Background(), 1, "someone", 100)

	var resellerErr *ResellerError
	require.True(t, errors.As(err, &resellerErr))
	assert.Equal(t, "add", resellerErr.Action)
	assert.Equal(t, "Not enough funds on balance", resellerErr.Message)
}

func TestResellerMissingOrderID(t *testing.T) {
	c := newTestReseller(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.AddOrder(context.Background(), 1, "someone", 100)

	var resellerErr *ResellerError
	assert.True(t, errors.As(err, &resellerErr))
}

func TestResellerNon2xx(t *testing.T) {
	c := newTestReseller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Balance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

func TestResellerServicesAndStatus(t *testing.T) {
	c := newTestReseller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		switch r.PostForm.Get("action") {
		case "services":
			_, _ = w.Write([]byte(`[{"service": 1, "name": "Followers", "rate": "0.90", "min": "10", "max": "1000", "category": "Instagram - Followers"}]`))
		case "status":
			assert.Equal(t, "77", r.PostForm.Get("order"))
			_, _ = w.Write([]byte(`{"charge": "0.27", "start_count": "3572", "status": "Partial", "remains": "157", "currency": "USD"}`))
		default:
			http.Error(w, "unexpected action", http.StatusBadRequest)
		}
	})

	services, err := c.Services(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Instagram - Followers", services[0].Category)

	st, err := c.OrderStatus(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Partial", st.Status)
	assert.Equal(t, 157, st.Remains.Int())
}

func TestResellerNotConfigured(t *testing.T) {
	c := NewResellerClient(&config.Reseller{BaseApiURL: "http://127.0.0.1:1"})

	_, err := c.Services(context.Background())
	assert.ErrorIs(t, err, ErrResellerNotConfigured)
}

func TestDisabledCardClient(t *testing.T) {
	c := NewBraintreeClient(&config.Braintree{})

	_, err := c.Charge(context.Background(), "nonce", decimalOf(t, "10.00"), "order-1")
	assert.ErrorIs(t, err, ErrCardPaymentsDisabled)
}

func TestDialectorFor(t *testing.T) {
	assert.Equal(t, "postgres", dialectorFor("postgres://u:p@localhost/db").Name())
	assert.Equal(t, "mysql", dialectorFor("mysql://u:p@tcp(localhost:3306)/db").Name())
	assert.Equal(t, "sqlite", dialectorFor("hypegrow.db").Name())
}
