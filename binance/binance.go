// Package binance implements a papertrade.PriceOracle backed by the public
// Binance ticker endpoint.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/common"
	"golang.org/x/time/rate"
)

const tickerPath = "/api/v3/ticker/price"

/*
	{
	    "symbol": "BTCUSDT",
	    "price": "65012.34000000"
	}

	on error, with a 4xx status:

	{
	    "code": -1121,
	    "msg": "Invalid symbol."
	}
*/

// Client fetches spot prices. It is safe for concurrent use.
type Client struct {
	baseURL string
	quote   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *common.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// NewClient returns a client configured from cfg.
func NewClient(cfg common.OracleConfig, logger *common.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		quote:   strings.ToUpper(cfg.Quote),
		http:    &http.Client{Timeout: cfg.GetTimeout()},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pair returns the exchange pair for symbol, e.g. BTC -> BTCUSDT.
func (c *Client) Pair(symbol string) string {
	return strings.ToUpper(symbol) + c.quote
}

// Price returns the latest unit price of symbol in the quote asset.
// Every call is a fresh request. Every failure wraps papertrade.ErrPriceUnavailable.
func (c *Client) Price(ctx context.Context, symbol string) (papertrade.Money, error) {
	pair := c.Pair(symbol)
	p, err := c.fetch(ctx, pair)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Str("pair", pair).Msg("price unavailable")
		return papertrade.Money{}, fmt.Errorf("%w: %w", papertrade.ErrPriceUnavailable, err)
	}
	c.logger.Debug().Str("symbol", symbol).Str("price", p.Decimal().String()).Msg("price fetched")
	return p, nil
}

func (c *Client) fetch(ctx context.Context, pair string) (papertrade.Money, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return papertrade.Money{}, err
	}

	addr := c.baseURL + tickerPath + "?" + url.Values{"symbol": {pair}}.Encode()
	var jobj any
	if err := jwget(ctx, c.http, addr, &jobj); err != nil {
		return papertrade.Money{}, fmt.Errorf("error retrieving %q: %w", pair, err)
	}

	path := "$.price"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return papertrade.Money{}, fmt.Errorf("error parsing %q: %q %w", pair, path, err)
	}
	// the API sends prices as strings, but accept plain numbers too
	var raw string
	switch v := jval.(type) {
	case string:
		raw = v
	case float64:
		raw = fmt.Sprint(v)
	default:
		return papertrade.Money{}, fmt.Errorf("cannot read price of %q: unexpected value %v", pair, jval)
	}
	p, err := papertrade.ParseMoney(raw)
	if err != nil {
		return papertrade.Money{}, fmt.Errorf("cannot read price of %q: %w", pair, err)
	}
	if !p.IsPositive() {
		// a zero price means the pair is not traded, never that it is free
		return papertrade.Money{}, fmt.Errorf("no price for %q: got %s", pair, raw)
	}
	return p, nil
}

// apiError is the error body returned by the exchange.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return fmt.Errorf("cannot http GET %v%v: %v: %s (code %d)", req.URL.Host, req.URL.Path, resp.Status, apiErr.Msg, apiErr.Code)
		}
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	if err := json.Unmarshal(body, data); err != nil {
		return errors.Join(fmt.Errorf("invalid JSON from %v%v", req.URL.Host, req.URL.Path), err)
	}
	return nil
}
