package lbank

import (
	"bytes"
	"encoding/json"
	"fmt"

	"impulsetracker/internal/fetch"
)

// Envelope is the common LBank v2 response wrapper. Result is the string
// "true" on success.
type Envelope struct {
	Result    string          `json:"result"`
	Msg       string          `json:"msg"`
	ErrorCode int             `json:"error_code"`
	Data      json.RawMessage `json:"data"`
	Ts        int64           `json:"ts"`
}

// TickerRow is one element of ticker.do data.
type TickerRow struct {
	Symbol string `json:"symbol"` // e.g. "bonk_usdt"
	Ticker struct {
		High     *json.Number `json:"high"`
		Low      *json.Number `json:"low"`
		Vol      *json.Number `json:"vol"`
		Change   *json.Number `json:"change"`
		Turnover *json.Number `json:"turnover"`
		Latest   *json.Number `json:"latest"` // last traded price
	} `json:"ticker"`
	Timestamp int64 `json:"timestamp"`
}

func (e Envelope) ok() error {
	if e.Result != "true" {
		return fmt.Errorf("%w: result=%q error_code=%d msg=%q", fetch.ErrNoPrice, e.Result, e.ErrorCode, e.Msg)
	}
	return nil
}

// latestPrice extracts data[0].ticker.latest.
func latestPrice(env Envelope) (float64, error) {
	if err := env.ok(); err != nil {
		return 0, err
	}

	var rows []TickerRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return 0, fmt.Errorf("%w: ticker data: %w", fetch.ErrMalformed, err)
	}
	if len(rows) == 0 || rows[0].Ticker.Latest == nil {
		return 0, fmt.Errorf("%w: no latest in ticker", fetch.ErrNoPrice)
	}

	price, err := rows[0].Ticker.Latest.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: latest %q: %w", fetch.ErrMalformed, rows[0].Ticker.Latest.String(), err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive latest", fetch.ErrNoPrice)
	}
	return price, nil
}

// parsePairs accepts both the enveloped form {"result":"true","data":[...]}
// and a bare JSON array of pair names.
func parsePairs(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", fetch.ErrMalformed)
	}

	if trimmed[0] == '{' {
		var env Envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %w", fetch.ErrMalformed, err)
		}
		if env.Result != "" && env.Result != "true" {
			return nil, fmt.Errorf("%w: result=%q msg=%q", fetch.ErrMalformed, env.Result, env.Msg)
		}
		trimmed = env.Data
	}

	var pairs []string
	if err := json.Unmarshal(trimmed, &pairs); err != nil {
		return nil, fmt.Errorf("%w: pair list: %w", fetch.ErrMalformed, err)
	}
	return pairs, nil
}
