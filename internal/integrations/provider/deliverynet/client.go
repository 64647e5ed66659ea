package deliverynet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

const (
	endpointOrders   = "orders"
	endpointProgress = "progress"
)

// HTTPError is a non-2xx answer from the provider.
type HTTPError struct {
	Endpoint   string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("deliverynet %s http %d", e.Endpoint, e.StatusCode)
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	orders   *gobreaker.CircuitBreaker
	progress *gobreaker.CircuitBreaker
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	return c.WithBreaker(5, 30*time.Second)
}

// WithBreaker пересоздаёт предохранители: после failures подряд неудачных
// вызовов эндпоинт считается недоступным на openFor.
func (c *Client) WithBreaker(failures uint32, openFor time.Duration) *Client {
	if failures == 0 {
		failures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	c.orders = newBreaker("deliverynet_"+endpointOrders, failures, openFor)
	c.progress = newBreaker("deliverynet_"+endpointProgress, failures, openFor)
	return c
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.httpc = h
	}
	return c
}

func newBreaker(name string, failures uint32, openFor time.Duration) *gobreaker.CircuitBreaker {
	metrics.ProviderBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.ProviderBreakerState.WithLabelValues(name).Set(float64(to))
		},
		IsSuccessful: isBreakerSuccess,
	})
}

// 404 и отмена запроса клиентом не говорят о том, что провайдер лежит.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, provider.ErrOrderNotFound) || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode/100 == 4 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	if !c.HasCredentials() {
		return nil, provider.ErrNotConfigured
	}
	if strings.TrimSpace(orderNumber) == "" {
		return nil, errors.New("orderNumber is required")
	}

	res, err := c.execute(c.orders, endpointOrders, func() (interface{}, error) {
		var orders []wireOrder
		status, err := c.getJSON(ctx, endpointOrders, "/orders/"+url.PathEscape(orderNumber), true, &orders)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound || len(orders) == 0 {
			return nil, provider.ErrOrderNotFound
		}
		for _, o := range orders {
			if o.OrderNumber == orderNumber {
				return o.toModel(), nil
			}
		}
		// чужой заказ в ответе не подменяет наш
		if len(orders) == 1 && orders[0].OrderNumber == "" {
			po := orders[0].toModel()
			po.OrderNumber = orderNumber
			return po, nil
		}
		return nil, provider.ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.ProviderOrder), nil
}

func (c *Client) GetProgress(ctx context.Context, trackingID string) (*models.Progress, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, errors.New("trackingId is required")
	}

	res, err := c.execute(c.progress, endpointProgress, func() (interface{}, error) {
		var p wireProgress
		status, err := c.getJSON(ctx, endpointProgress, "/order/progress/"+url.PathEscape(trackingID), false, &p)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, provider.ErrOrderNotFound
		}
		return p.toModel(trackingID), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.Progress), nil
}

func (c *Client) execute(cb *gobreaker.CircuitBreaker, endpoint string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	res, err := cb.Execute(fn)
	metrics.ProviderRequestDuration.WithLabelValues(endpoint, outcome(err)).Observe(time.Since(start).Seconds())
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Wrapf(err, "deliverynet %s", endpoint)
	}
	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, provider.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// getJSON returns (404, nil) for not found so callers can map it to their
// own sentinel.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, auth bool, out any) (int, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return 0, errors.Wrap(err, "parse url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", "Basic "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, &HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode")
	}
	return resp.StatusCode, nil
}

var _ provider.Client = (*Client)(nil)
