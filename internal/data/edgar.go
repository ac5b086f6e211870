package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"montecarlo-forecast/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEdgarBaseURL    = "https://data.sec.gov"
	DefaultEdgarTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// EdgarClient fetches XBRL company facts from SEC EDGAR.
// SEC rejects requests without a descriptive User-Agent (name and email).
type EdgarClient struct {
	UserAgent  string
	BaseURL    string
	TickersURL string
	Client     *http.Client
	Log        logrus.FieldLogger

	cache *Cache[model.HistoricalSeries]
}

// NewEdgarClient creates a client. An empty baseURL defaults to
// DefaultEdgarBaseURL; cacheTTL <= 0 disables response caching.
func NewEdgarClient(userAgent, baseURL string, cacheTTL time.Duration) *EdgarClient {
	if baseURL == "" {
		baseURL = DefaultEdgarBaseURL
	}
	return &EdgarClient{
		UserAgent:  userAgent,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		TickersURL: DefaultEdgarTickersURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: NewCache[model.HistoricalSeries](cacheTTL),
	}
}

// EdgarError represents an error response from EDGAR.
type EdgarError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *EdgarError) Error() string {
	return e.Message
}

// Is lets a 404 match ErrNotFound.
func (e *EdgarError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type conceptFact struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Val   decimal.Decimal `json:"val"`
	FY    int             `json:"fy"`
	FP    string          `json:"fp"`
	Form  string          `json:"form"`
	Filed string          `json:"filed"`
}

type conceptResponse struct {
	CIK        int                      `json:"cik"`
	Taxonomy   string                   `json:"taxonomy"`
	Tag        string                   `json:"tag"`
	EntityName string                   `json:"entityName"`
	Units      map[string][]conceptFact `json:"units"`
}

// FormatCIK left-pads a numeric CIK to the ten digits EDGAR paths expect.
func FormatCIK(cik string) (string, error) {
	cik = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(cik)), "CIK")
	n, err := strconv.ParseUint(cik, 10, 64)
	if err != nil || n == 0 || n > 9999999999 {
		return "", &EdgarError{Code: "INVALID_CIK", Message: fmt.Sprintf("invalid CIK %q", cik)}
	}
	return fmt.Sprintf("%010d", n), nil
}

// FetchAnnualSeries returns one value per fiscal year of a us-gaap concept
// (e.g. "Revenues", "NetIncomeLoss") taken from 10-K filings.
//
// A year is keyed by the end date of its fact. Duration facts must span
// roughly a year; when several filings report the same year, the latest
// filing wins. USD units are preferred when a concept reports several.
func (c *EdgarClient) FetchAnnualSeries(ctx context.Context, cik, concept string) (model.HistoricalSeries, error) {
	if err := c.validateUserAgent(); err != nil {
		return model.HistoricalSeries{}, err
	}
	padded, err := FormatCIK(cik)
	if err != nil {
		return model.HistoricalSeries{}, err
	}
	if strings.TrimSpace(concept) == "" {
		return model.HistoricalSeries{}, fmt.Errorf("concept is required")
	}

	cacheKey := CacheKey("concept", padded, concept)
	if cached, found := c.cache.Get(cacheKey); found {
		c.log().WithFields(logrus.Fields{"cik": padded, "concept": concept, "points": cached.Len()}).Debug("edgar cache hit")
		return cached, nil
	}

	// /api/xbrl/companyconcept/CIK##########/us-gaap/{concept}.json
	u, err := url.Parse(fmt.Sprintf("%s/api/xbrl/companyconcept/CIK%s/us-gaap/%s.json", c.BaseURL, padded, url.PathEscape(concept)))
	if err != nil {
		return model.HistoricalSeries{}, fmt.Errorf("invalid base URL: %w", err)
	}

	var resp conceptResponse
	if err := c.getJSON(ctx, u.String(), &resp, logrus.Fields{"cik": padded, "concept": concept}); err != nil {
		return model.HistoricalSeries{}, err
	}

	series := model.HistoricalSeries{Metric: concept, Observations: annualObservations(resp.Units)}
	c.cache.Set(cacheKey, series)
	c.log().WithFields(logrus.Fields{
		"cik":     padded,
		"concept": concept,
		"entity":  resp.EntityName,
		"points":  series.Len(),
	}).Info("edgar concept fetched")
	return series, nil
}

func annualObservations(units map[string][]conceptFact) []model.Observation {
	facts, ok := units["USD"]
	if !ok {
		keys := make([]string, 0, len(units))
		for k := range units {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			facts = units[keys[0]]
		}
	}

	type pick struct {
		value float64
		filed string
	}
	byYear := map[int]pick{}
	for _, f := range facts {
		if f.Form != "10-K" || f.FP != "FY" {
			continue
		}
		end, err := time.Parse("2006-01-02", f.End)
		if err != nil {
			continue
		}
		if f.Start != "" {
			start, err := time.Parse("2006-01-02", f.Start)
			if err != nil {
				continue
			}
			days := end.Sub(start).Hours() / 24
			if days < 350 || days > 380 {
				continue
			}
		}
		year := end.Year()
		if prev, ok := byYear[year]; ok && prev.filed >= f.Filed {
			continue
		}
		byYear[year] = pick{value: f.Val.InexactFloat64(), filed: f.Filed}
	}

	out := make([]model.Observation, 0, len(byYear))
	for year, p := range byYear {
		out = append(out, model.Observation{Period: year, Value: p.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CompanyTickers downloads the SEC ticker to CIK mapping, sorted by ticker.
func (c *EdgarClient) CompanyTickers(ctx context.Context) ([]Company, error) {
	if err := c.validateUserAgent(); err != nil {
		return nil, err
	}
	var raw map[string]tickerEntry
	if err := c.getJSON(ctx, c.TickersURL, &raw, logrus.Fields{"resource": "company_tickers"}); err != nil {
		return nil, err
	}
	out := make([]Company, 0, len(raw))
	for _, e := range raw {
		out = append(out, Company{
			Ticker: strings.ToUpper(e.Ticker),
			CIK:    fmt.Sprintf("%010d", e.CIK),
			Title:  e.Title,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (c *EdgarClient) getJSON(ctx context.Context, rawURL string, dst any, fields logrus.Fields) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	log := c.log().WithFields(fields)
	log.WithField("url", req.URL.Path).Debug("edgar request")

	startTime := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.WithError(err).WithField("duration", duration).Warn("edgar request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": duration})

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		// EDGAR answers 403 to clients without an acceptable User-Agent.
		log.Warn("edgar forbidden")
		return &EdgarError{
			StatusCode: resp.StatusCode,
			Code:       "EDGAR_FORBIDDEN",
			Message:    "EDGAR refused the request; check EDGAR_USER_AGENT",
		}
	case http.StatusNotFound:
		log.Info("edgar resource not found")
		return &EdgarError{
			StatusCode: resp.StatusCode,
			Code:       "EDGAR_NOT_FOUND",
			Message:    "EDGAR has no data for this company or concept",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.WithField("retry_after", retryAfter).Warn("edgar rate limit exceeded")
		return &EdgarError{
			StatusCode: resp.StatusCode,
			Code:       "EDGAR_RATE_LIMITED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		log.Warn("edgar error")
		return &EdgarError{
			StatusCode: resp.StatusCode,
			Code:       "EDGAR_API_ERROR",
			Message:    fmt.Sprintf("EDGAR returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		log.WithError(err).Warn("edgar decode failed")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *EdgarClient) validateUserAgent() error {
	ua := strings.TrimSpace(c.UserAgent)
	if ua == "" {
		return &EdgarError{
			Code:    "EDGAR_MISSING_USER_AGENT",
			Message: "EDGAR requires a User-Agent with a contact email (set EDGAR_USER_AGENT)",
		}
	}
	if !strings.Contains(ua, "@") {
		return &EdgarError{
			Code:    "EDGAR_INVALID_USER_AGENT",
			Message: "EDGAR User-Agent should include a contact email",
		}
	}
	return nil
}

func (c *EdgarClient) log() logrus.FieldLogger {
	if c.Log == nil {
		return discard
	}
	return c.Log
}
