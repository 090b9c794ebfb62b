package connectors

// REST CLIENT FOR THE SYMBOL REFERENCE SERVICE
// RESTY ONLY + INTERNAL RETRY

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

type referenceSymbol struct {
	Name          string          `json:"name"`
	CurrencyBase  string          `json:"currency_base"`
	CurrencyQuote string          `json:"currency_quote"`
	Digits        int             `json:"digits"`
	SwapLong      decimal.Decimal `json:"swap_long"`
	SwapShort     decimal.Decimal `json:"swap_short"`
	Description   string          `json:"description"`
}

type referenceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReferenceClient fetches symbol reference data (digits, currencies, swaps)
// that this system does not own.
type ReferenceClient struct {
	baseURL string
	http    *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func NewReferenceClient(cfg Config) *ReferenceClient {
	attempts := cfg.ReferenceRetries
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	timeout := cfg.ReferenceTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ReferenceBaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(attempts-1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp).
		SetHeader("Accept", "application/json")
	if cfg.ReferenceAPIKey != "" {
		httpClient.SetHeader("X-API-Key", cfg.ReferenceAPIKey)
	}

	return &ReferenceClient{
		baseURL: cfg.ReferenceBaseURL,
		http:    httpClient,
	}
}

// Symbol returns the reference data of name. An unknown symbol is reported as
// model.NotFoundError.
func (c *ReferenceClient) Symbol(ctx context.Context, name string) (*model.Symbol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	var body referenceSymbol
	var apiErr referenceError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(&body).
		SetError(&apiErr).
		Get("/symbols/{name}")
	if err != nil {
		return nil, fmt.Errorf("reference symbol %s: %w", name, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, &model.NotFoundError{Entity: "symbol", Key: name}
	case resp.IsError():
		logger.WithFields(map[string]interface{}{
			"connector": "reference",
			"symbol":    name,
			"status":    resp.StatusCode(),
			"code":      apiErr.Code,
		}).Error("reference request failed")
		return nil, fmt.Errorf("reference symbol %s: status %d: %s", name, resp.StatusCode(), apiErr.Message)
	}

	symbol := &model.Symbol{
		Name:          strings.ToUpper(body.Name),
		CurrencyBase:  strings.ToUpper(body.CurrencyBase),
		CurrencyQuote: strings.ToUpper(body.CurrencyQuote),
		Digits:        body.Digits,
		SwapLong:      body.SwapLong,
		SwapShort:     body.SwapShort,
		Description:   body.Description,
	}
	if err := symbol.Validate(); err != nil {
		return nil, err
	}
	return symbol, nil
}
