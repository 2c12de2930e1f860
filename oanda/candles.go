// Package oanda fetches historical OHLC candles from the OANDA v20 REST API.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/volstat/market"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"

	// MaxCount is the largest count OANDA accepts in a single request.
	MaxCount = 5000
)

// BaseForEnv maps practice/live to the API base URL; "" when unknown.
func BaseForEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "fxpractice":
		return PracticeURL
	case "live", "fxtrade", "trade":
		return LiveURL
	default:
		return ""
	}
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(env, token string) (*Client, error) {
	base := BaseForEnv(env)
	if base == "" {
		return nil, fmt.Errorf("oanda: unknown env %q (use practice or live)", env)
	}
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type CandlesOptions struct {
	Instrument  string
	Granularity string // e.g. M1, H1, D
	Price       string // M, B, A

	From  time.Time // optional
	To    time.Time // optional
	Count int       // optional (used if >0)

	// IncludeIncomplete keeps the still-forming last candle.
	IncludeIncomplete bool
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      *ohlc  `json:"mid,omitempty"`
		Bid      *ohlc  `json:"bid,omitempty"`
		Ask      *ohlc  `json:"ask,omitempty"`
	} `json:"candles"`
}

// FetchCandles downloads candles and returns them as a validated series
// named after the instrument.
func (c *Client) FetchCandles(ctx context.Context, opts CandlesOptions) (market.Series, error) {
	if c.Token == "" {
		return market.Series{}, fmt.Errorf("oanda: missing token")
	}
	if c.BaseURL == "" {
		return market.Series{}, fmt.Errorf("oanda: missing base url")
	}
	if opts.Instrument == "" {
		return market.Series{}, fmt.Errorf("oanda: missing instrument")
	}
	if opts.Granularity == "" {
		return market.Series{}, fmt.Errorf("oanda: missing granularity")
	}
	if opts.Count > MaxCount {
		return market.Series{}, fmt.Errorf("oanda: count %d exceeds %d", opts.Count, MaxCount)
	}
	price := strings.ToUpper(strings.TrimSpace(opts.Price))
	if price == "" {
		price = "M"
	}
	if price != "M" && price != "B" && price != "A" {
		return market.Series{}, fmt.Errorf("oanda: price=%s not supported; use M/B/A", price)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return market.Series{}, err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", opts.Instrument)

	q := u.Query()
	q.Set("granularity", opts.Granularity)
	q.Set("price", price)
	if opts.Count > 0 {
		q.Set("count", strconv.Itoa(opts.Count))
	} else {
		if !opts.From.IsZero() {
			q.Set("from", opts.From.UTC().Format(time.RFC3339Nano))
		}
		if !opts.To.IsZero() {
			q.Set("to", opts.To.UTC().Format(time.RFC3339Nano))
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return market.Series{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return market.Series{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return market.Series{}, fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return market.Series{}, fmt.Errorf("oanda: decode candles: %w", err)
	}

	s := market.Series{Symbol: cr.Instrument}
	if s.Symbol == "" {
		s.Symbol = opts.Instrument
	}
	for _, cd := range cr.Candles {
		if !cd.Complete && !opts.IncludeIncomplete {
			continue
		}
		var p *ohlc
		switch price {
		case "M":
			p = cd.Mid
		case "B":
			p = cd.Bid
		case "A":
			p = cd.Ask
		}
		if p == nil {
			continue
		}

		candle, err := toCandle(cd.Time, cd.Volume, p)
		if err != nil {
			return market.Series{}, fmt.Errorf("oanda: candle %s: %w", cd.Time, err)
		}
		s.Candles = append(s.Candles, candle)
	}

	if err := s.Validate(); err != nil {
		return market.Series{}, err
	}
	return s, nil
}

func toCandle(ts string, volume int, p *ohlc) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return market.Candle{}, err
	}
	c := market.Candle{Time: t.UTC(), Volume: float64(volume)}
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{p.O, &c.Open},
		{p.H, &c.High},
		{p.L, &c.Low},
		{p.C, &c.Close},
	} {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return market.Candle{}, err
		}
	}
	return c, nil
}

// InstrumentFor maps a dashboard symbol such as XAUUSD to its OANDA
// instrument. Names already in OANDA form (EUR_USD) pass through.
func InstrumentFor(symbol string) (string, error) {
	if m, ok := market.LookupSymbol(symbol); ok {
		if m.Instrument == "" {
			return "", fmt.Errorf("oanda: %s is quoted on %s, not available from OANDA", m.Name, m.Exchange)
		}
		return m.Instrument, nil
	}
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "_") {
		return s, nil
	}
	if len(s) == 6 {
		return s[:3] + "_" + s[3:], nil
	}
	return "", fmt.Errorf("oanda: cannot map symbol %q to an instrument", symbol)
}
