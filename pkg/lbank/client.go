package lbank

import (
	"context"
	"encoding/json"
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

// CurrencyPairs returns every tradable pair name, e.g. "bonk_usdt".
func (c *Client) CurrencyPairs(ctx context.Context, sess *fetch.Session) ([]string, error) {
	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, sess, c.baseURL+"/v2/currencyPairs.do", &raw); err != nil {
		return nil, err
	}
	return parsePairs(raw)
}

// Latest returns the last traded price of an LBank-native pair.
func (c *Client) Latest(ctx context.Context, sess *fetch.Session, pair string) (float64, error) {
	endpoint := c.baseURL + "/v2/ticker.do?" + url.Values{"symbol": {pair}}.Encode()

	var env Envelope
	if err := c.http.GetJSON(ctx, sess, endpoint, &env); err != nil {
		return 0, err
	}
	return latestPrice(env)
}
