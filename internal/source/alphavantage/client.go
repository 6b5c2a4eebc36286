package alphavantage

import (
	"context"
	"fmt"
	"strconv"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	"FundFlow/internal/source"
	"FundFlow/pkg/config"
	xhttp "FundFlow/pkg/http"
)

// Client fetches SPY quotes from the Alpha Vantage GLOBAL_QUOTE endpoint.
type Client struct {
	cfg  config.SourceConfig
	http *xhttp.Client
}

// New creates an Alpha Vantage source adapter.
func New(cfg config.SourceConfig) drepo.Source {
	return &Client{
		cfg: cfg,
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.ResponseTimeout),
			xhttp.WithConnectTimeout(cfg.ConnectTimeout),
		),
	}
}

func (c *Client) Name() string { return c.cfg.Name }

type quoteResponse struct {
	GlobalQuote struct {
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
	} `json:"Global Quote"`
}

func (c *Client) Fetch(ctx context.Context) (*models.FlowSnapshot, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: alpha vantage: api key not configured", models.ErrSourceUnavailable)
	}

	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.URL,
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {"SPY"},
			"apikey":   {c.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: alpha vantage: %v", models.ErrSourceUnavailable, err)
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("%w: alpha vantage: invalid price %q", models.ErrSourceUnavailable, resp.GlobalQuote.Price)
	}
	previousClose, err := strconv.ParseFloat(resp.GlobalQuote.PreviousClose, 64)
	if err != nil || previousClose <= 0 {
		return nil, fmt.Errorf("%w: alpha vantage: invalid previous close %q", models.ErrSourceUnavailable, resp.GlobalQuote.PreviousClose)
	}

	return source.NewSnapshot(c.cfg.Name, c.cfg.Confidence, c.cfg.UnitShares,
		price, previousClose), nil
}
