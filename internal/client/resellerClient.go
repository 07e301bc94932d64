package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/model"
)

var ErrResellerNotConfigured = errors.New("reseller api key not configured")

// ResellerError is an error message returned by the panel in a 2xx body.
type ResellerError struct {
	Action  string
	Message string
}

func (e *ResellerError) Error() string {
	return fmt.Sprintf("reseller %s: %s", e.Action, e.Message)
}

// ResellerClient talks to a JustAnotherPanel compatible v2 API.
type ResellerClient interface {
	Services(ctx context.Context) ([]model.ResellerService, error)
	AddOrder(ctx context.Context, serviceID int64, link string, quantity int) (int64, error)
	OrderStatus(ctx context.Context, orderID int64) (*model.ResellerOrderStatus, error)
	Balance(ctx context.Context) (*model.ResellerBalance, error)
}

type resellerClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

func NewResellerClient(cfg *config.Reseller) ResellerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &resellerClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *resellerClientImpl) Services(ctx context.Context) ([]model.ResellerService, error) {
	var services []model.ResellerService
	if err := c.call(ctx, "services", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *resellerClientImpl) AddOrder(ctx context.Context, serviceID int64, link string, quantity int) (int64, error) {
	params := url.Values{}
	params.Set("service", strconv.FormatInt(serviceID, 10))
	params.Set("link", link)
	params.Set("quantity", strconv.Itoa(quantity))

	var result model.ResellerAddOrderResult
	if err := c.call(ctx, "add", params, &result); err != nil {
		return 0, err
	}
	if result.Order == 0 {
		return 0, &ResellerError{Action: "add", Message: "response has no order id"}
	}

	return result.Order, nil
}

func (c *resellerClientImpl) OrderStatus(ctx context.Context, orderID int64) (*model.ResellerOrderStatus, error) {
	params := url.Values{}
	params.Set("order", strconv.FormatInt(orderID, 10))

	var status model.ResellerOrderStatus
	if err := c.call(ctx, "status", params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *resellerClientImpl) Balance(ctx context.Context) (*model.ResellerBalance, error) {
	var balance model.ResellerBalance
	if err := c.call(ctx, "balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *resellerClientImpl) call(ctx context.Context, action string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrResellerNotConfigured
	}

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseApiURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("create reseller %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reseller %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read reseller %s response: %w", action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf(
			"reseller %s failed: status=%d body=%s",
			action,
			resp.StatusCode,
			string(body),
		)
	}

	// the panel reports failures as {"error": "..."} with a 200
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return &ResellerError{Action: action, Message: apiErr.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode reseller %s response %q: %w", action, string(body), err)
	}

	return nil
}
