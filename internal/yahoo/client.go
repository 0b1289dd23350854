// Package yahoo implements the market data provider against the public
// Yahoo Finance quote endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches per-symbol attribute bags.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a market data client. baseURL is overridable for
// tests; pass "" for the production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: "microhunt/1.0",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				ShortName          string    `json:"shortName"`
				Currency           string    `json:"currency"`
				RegularMarketPrice rawNumber `json:"regularMarketPrice"`
				MarketCap          rawNumber `json:"marketCap"`
			} `json:"price"`
			SummaryProfile struct {
				Sector string `json:"sector"`
			} `json:"summaryProfile"`
			DefaultKeyStatistics struct {
				TrailingEps rawNumber `json:"trailingEps"`
				BookValue   rawNumber `json:"bookValue"`
				PriceToBook rawNumber `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				FreeCashflow rawNumber `json:"freeCashflow"`
				TotalCash    rawNumber `json:"totalCash"`
				Ebitda       rawNumber `json:"ebitda"`
				TotalDebt    rawNumber `json:"totalDebt"`
				CurrentRatio rawNumber `json:"currentRatio"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawNumber tolerates Yahoo's {"raw": 1.23, "fmt": "1.23"} wrappers as
// well as bare numbers, defaulting to zero for anything else.
type rawNumber float64

func (n *rawNumber) UnmarshalJSON(data []byte) error {
	var bare float64
	if err := json.Unmarshal(data, &bare); err == nil {
		*n = rawNumber(bare)
		return nil
	}
	var wrapped struct {
		Raw float64 `json:"raw"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		*n = rawNumber(wrapped.Raw)
		return nil
	}
	*n = 0
	return nil
}

// GetAttributes fetches the flat attribute bag for a symbol. Absent
// upstream values come back as zero, never an error; only transport
// failures and unknown symbols are errors, wrapped as common.ErrMarketData.
func (c *Client) GetAttributes(ctx context.Context, symbol string) (*model.Candidate, error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile,defaultKeyStatistics,financialData",
		c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMarketData, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMarketData, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMarketData, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: symbol %s not found", common.ErrMarketData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", common.ErrMarketData, resp.StatusCode, symbol)
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response for %s: %v", common.ErrMarketData, symbol, err)
	}

	if parsed.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", common.ErrMarketData, symbol, parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result for %s", common.ErrMarketData, symbol)
	}

	r := parsed.QuoteSummary.Result[0]
	return &model.Candidate{
		Symbol:       symbol,
		Name:         r.Price.ShortName,
		Sector:       r.SummaryProfile.Sector,
		Currency:     r.Price.Currency,
		Price:        float64(r.Price.RegularMarketPrice),
		MarketCap:    float64(r.Price.MarketCap),
		EPS:          float64(r.DefaultKeyStatistics.TrailingEps),
		BookValue:    float64(r.DefaultKeyStatistics.BookValue),
		PriceToBook:  float64(r.DefaultKeyStatistics.PriceToBook),
		FreeCashflow: float64(r.FinancialData.FreeCashflow),
		TotalCash:    float64(r.FinancialData.TotalCash),
		EBITDA:       float64(r.FinancialData.Ebitda),
		TotalDebt:    float64(r.FinancialData.TotalDebt),
		CurrentRatio: float64(r.FinancialData.CurrentRatio),
	}, nil
}
