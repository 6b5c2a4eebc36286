package yahoo

import (
	"context"
	"fmt"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	"FundFlow/internal/source"
	"FundFlow/pkg/config"
	xhttp "FundFlow/pkg/http"
)

// Client fetches SPY quotes from the Yahoo Finance chart endpoint.
type Client struct {
	cfg  config.SourceConfig
	http *xhttp.Client
}

// New creates a Yahoo Finance source adapter.
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

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// Fetch pulls the current chart meta and normalizes it. Any transport or
// payload problem maps to ErrSourceUnavailable; no partial snapshot is ever
// returned.
func (c *Client) Fetch(ctx context.Context) (*models.FlowSnapshot, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.URL,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo finance: %v", models.ErrSourceUnavailable, err)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo finance: empty chart result", models.ErrSourceUnavailable)
	}
	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 || meta.PreviousClose <= 0 {
		return nil, fmt.Errorf("%w: yahoo finance: missing price fields", models.ErrSourceUnavailable)
	}

	return source.NewSnapshot(c.cfg.Name, c.cfg.Confidence, c.cfg.UnitShares,
		meta.RegularMarketPrice, meta.PreviousClose), nil
}
