package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/go-resty/resty/v2"

	"github.com/investcalc/calc-engine/internal/model"
)

// Currency pair served by the rate service.
const (
	BaseCurrency  = "USD"
	QuoteCurrency = "KRW"
)

// Default upstream endpoints.
const (
	FrankfurterURL = "https://api.frankfurter.app"
	OpenERURL      = "https://open.er-api.com"
)

var (
	// ErrUpstreamStatus is returned when an upstream answers with a non-2xx status.
	ErrUpstreamStatus = errors.New("fx: upstream returned non-success status")

	// ErrMalformedResponse is returned when an upstream body does not carry a
	// positive rate at the expected JSON path.
	ErrMalformedResponse = errors.New("fx: malformed upstream response")
)

// Provider fetches the current USD→KRW rate from one upstream.
type Provider interface {
	Name() string
	FetchRate(ctx context.Context) (float64, error)
}

// HTTPProvider queries a JSON endpoint and reads the rate at a fixed path.
type HTTPProvider struct {
	name   string
	client *resty.Client
	path   string
	query  map[string]string
	keys   []string
}

// NewHTTPClient returns the resty client shared by the HTTP providers.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "investcalc-fx/1.0").
		SetTimeout(timeout)
}

// NewFrankfurter returns a provider for the Frankfurter (ECB) API:
// GET {baseURL}/latest?from=USD&to=KRW → {"rates":{"KRW":1380.12}}.
func NewFrankfurter(client *resty.Client, baseURL string) *HTTPProvider {
	if baseURL == "" {
		baseURL = FrankfurterURL
	}
	return &HTTPProvider{
		name:   "frankfurter",
		client: client,
		path:   baseURL + "/latest",
		query:  map[string]string{"from": BaseCurrency, "to": QuoteCurrency},
		keys:   []string{"rates", QuoteCurrency},
	}
}

// NewOpenER returns a provider for the open.er-api.com free tier:
// GET {baseURL}/v6/latest/USD → {"result":"success","rates":{"KRW":1380.12,...}}.
func NewOpenER(client *resty.Client, baseURL string) *HTTPProvider {
	if baseURL == "" {
		baseURL = OpenERURL
	}
	return &HTTPProvider{
		name:   "open-er-api",
		client: client,
		path:   baseURL + "/v6/latest/" + BaseCurrency,
		keys:   []string{"rates", QuoteCurrency},
	}
}

func (p *HTTPProvider) Name() string {
	return p.name
}

func (p *HTTPProvider) FetchRate(ctx context.Context) (float64, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(p.query).
		Get(p.path)
	if err != nil {
		return 0, fmt.Errorf("%s: fetch rate: %w", p.name, err)
	}
	if !resp.IsSuccess() {
		return 0, fmt.Errorf("%w: %s responded %d", ErrUpstreamStatus, p.name, resp.StatusCode())
	}

	rate, err := jsonparser.GetFloat(resp.Body(), p.keys...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, p.name, err)
	}
	if !model.ValidRate(rate) {
		return 0, fmt.Errorf("%w: %s: rate %v", ErrMalformedResponse, p.name, rate)
	}
	return rate, nil
}
