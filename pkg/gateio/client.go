package gateio

import (
	"context"
	"net/url"

	"impulsetracker/internal/fetch"
)

type Client struct {
	baseURL string
	http    *fetch.Client
}

func NewClient(baseURL string, http *fetch.Client) *Client {
	return &Client{baseURL: baseURL, http: http}
}

// SpotLast returns the last traded spot price of pair (e.g. "BONK_USDT").
func (c *Client) SpotLast(ctx context.Context, sess *fetch.Session, pair string) (float64, error) {
	endpoint := c.baseURL + "/api/v4/spot/tickers?" + url.Values{"currency_pair": {pair}}.Encode()
	return c.last(ctx, sess, endpoint)
}

// FuturesLast returns the last traded price of a USDT-settled perpetual.
func (c *Client) FuturesLast(ctx context.Context, sess *fetch.Session, contract string) (float64, error) {
	endpoint := c.baseURL + "/api/v4/futures/usdt/tickers?" + url.Values{"contract": {contract}}.Encode()
	return c.last(ctx, sess, endpoint)
}

func (c *Client) last(ctx context.Context, sess *fetch.Session, endpoint string) (float64, error) {
	var rows []Ticker
	if err := c.http.GetJSON(ctx, sess, endpoint, &rows); err != nil {
		return 0, err
	}
	return lastPrice(rows)
}
