package dexscreener

import (
	"context"
	"math/rand"
	"net/url"
	"strconv"

	"impulsetracker/internal/fetch"
)

type Client struct {
	baseURL string
	http    *fetch.Client
}

func NewClient(baseURL string, http *fetch.Client) *Client {
	return &Client{baseURL: baseURL, http: http}
}

// TokenPrice returns the USD price of the token's first listed pair.
func (c *Client) TokenPrice(ctx context.Context, sess *fetch.Session, address string) (float64, error) {
	// random query parameter defeats intermediate caches
	endpoint := c.baseURL + "/latest/dex/tokens/" + url.PathEscape(address) +
		"?r=" + strconv.FormatFloat(rand.Float64(), 'f', 8, 64)

	var resp TokenPairsResponse
	if err := c.http.GetJSON(ctx, sess, endpoint, &resp); err != nil {
		return 0, err
	}
	return resp.FirstPrice()
}
