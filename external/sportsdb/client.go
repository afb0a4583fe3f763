package sportsdb

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/last-man-standing/internal/domain/fixture"
	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
	"github.com/riskibarqy/last-man-standing/internal/platform/resilience"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

const (
	defaultBaseURL      = "https://www.thesportsdb.com/api/v1/json"
	defaultLeagueID     = "4328"
	defaultScanWorkers  = 4
	defaultMaxRound     = 38
	maxResponseBytes    = 6 << 20
	timestampLayout     = "2006-01-02T15:04:05"
	kickoffDateLayout   = "2006-01-02"
	kickoffTimeFallback = "15:00:00"
)

var errSportsDBTransient = crerr.New("sportsdb transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	LeagueID       string
	Season         string
	Timeout        time.Duration
	MaxRetries     int
	ScanWorkers    int
	MaxRound       int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	leagueID       string
	season         string
	maxRetries     int
	scanWorkers    int
	maxRound       int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	leagueID := strings.TrimSpace(cfg.LeagueID)
	if leagueID == "" {
		leagueID = defaultLeagueID
	}
	scanWorkers := cfg.ScanWorkers
	if scanWorkers <= 0 {
		scanWorkers = defaultScanWorkers
	}
	maxRound := cfg.MaxRound
	if maxRound <= 0 {
		maxRound = defaultMaxRound
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		leagueID:       leagueID,
		season:         strings.TrimSpace(cfg.Season),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		scanWorkers:    scanWorkers,
		maxRound:       maxRound,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type eventsEnvelope struct {
	Events []eventItem `json:"events"`
}

type eventItem struct {
	ID        string `json:"idEvent"`
	Round     string `json:"intRound"`
	HomeTeam  string `json:"strHomeTeam"`
	AwayTeam  string `json:"strAwayTeam"`
	HomeScore string `json:"intHomeScore"`
	AwayScore string `json:"intAwayScore"`
	Status    string `json:"strStatus"`
	Date      string `json:"dateEvent"`
	Time      string `json:"strTime"`
	Timestamp string `json:"strTimestamp"`
}

// FixturesByWeek fetches one round of the configured league season and maps
// the provider events into fixtures. A round the provider has no events for
// yields an empty slice, not an error.
func (c *Client) FixturesByWeek(ctx context.Context, week int) ([]fixture.Fixture, error) {
	if week <= 0 {
		return nil, fmt.Errorf("week must be greater than zero, got %d", week)
	}

	query := map[string]string{
		"id": c.leagueID,
		"r":  strconv.Itoa(week),
	}
	if c.season != "" {
		query["s"] = c.season
	}

	var envelope eventsEnvelope
	if err := c.doJSON(ctx, "/eventsround.php", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch round %d: %w", week, err)
	}

	fixtures := make([]fixture.Fixture, 0, len(envelope.Events))
	for _, item := range envelope.Events {
		mapped, ok := mapEvent(item, week)
		if !ok {
			continue
		}
		fixtures = append(fixtures, mapped)
	}
	sort.Slice(fixtures, func(i, j int) bool {
		if !fixtures[i].KickoffAt.Equal(fixtures[j].KickoffAt) {
			return fixtures[i].KickoffAt.Before(fixtures[j].KickoffAt)
		}
		return fixtures[i].ExternalID < fixtures[j].ExternalID
	})
	return fixtures, nil
}

// CurrentWeek scans the season's rounds and returns the lowest round that
// still has an unfinished fixture. When every round with fixtures has
// finished it returns the last such round. The boolean is false when the
// provider reports no fixtures at all.
func (c *Client) CurrentWeek(ctx context.Context) (int, bool, error) {
	type roundState struct {
		hasFixtures bool
		unfinished  bool
	}

	states := make([]roundState, c.maxRound+1)
	var (
		mu       sync.Mutex
		firstErr error
	)

	scanner := pool.New().WithMaxGoroutines(c.scanWorkers)
	for week := 1; week <= c.maxRound; week++ {
		week := week
		scanner.Go(func() {
			mu.Lock()
			stop := firstErr != nil
			mu.Unlock()
			if stop {
				return
			}

			fixtures, err := c.FixturesByWeek(ctx, week)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("scan round %d: %w", week, err)
				}
				return
			}
			states[week].hasFixtures = len(fixtures) > 0
			for _, item := range fixtures {
				if !fixture.IsFinishedStatus(item.Status) {
					states[week].unfinished = true
					break
				}
			}
		})
	}
	scanner.Wait()

	if firstErr != nil {
		return 0, false, firstErr
	}

	lastPlayed := 0
	for week := 1; week <= c.maxRound; week++ {
		if !states[week].hasFixtures {
			continue
		}
		if states[week].unfinished {
			return week, true, nil
		}
		lastPlayed = week
	}
	if lastPlayed > 0 {
		return lastPlayed, true, nil
	}
	return 0, false, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsdb circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: schedule provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + "/" + url.PathEscape(c.apiKey) + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isSportsDBCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSportsDBTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSportsDBTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportsDBTransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportsdb request failed", "url", c.redactKeyURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func mapEvent(item eventItem, week int) (fixture.Fixture, bool) {
	home := strings.TrimSpace(item.HomeTeam)
	away := strings.TrimSpace(item.AwayTeam)
	if home == "" || away == "" {
		return fixture.Fixture{}, false
	}

	mapped := fixture.Fixture{
		ExternalID: strings.TrimSpace(item.ID),
		Week:       week,
		HomeTeam:   home,
		AwayTeam:   away,
		HomeScore:  parseScore(item.HomeScore),
		AwayScore:  parseScore(item.AwayScore),
		Status:     fixture.NormalizeStatus(item.Status),
		KickoffAt:  parseKickoff(item),
	}
	return mapped, true
}

func parseScore(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	score, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &score
}

// parseKickoff prefers the provider's UTC timestamp. Events without one fall
// back to the event date plus kickoff time, with a generic afternoon slot
// when the time is also missing.
func parseKickoff(item eventItem) time.Time {
	if stamp := strings.TrimSpace(item.Timestamp); stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			return parsed.UTC()
		}
		if parsed, err := time.Parse(timestampLayout, stamp); err == nil {
			return parsed.UTC()
		}
	}

	date := strings.TrimSpace(item.Date)
	if date == "" {
		return time.Time{}
	}
	clock := strings.TrimSpace(item.Time)
	if clock == "" {
		clock = kickoffTimeFallback
	}
	parsed, err := time.Parse(kickoffDateLayout+" 15:04:05", date+" "+clock)
	if err != nil {
		parsed, err = time.Parse(kickoffDateLayout, date)
		if err != nil {
			return time.Time{}
		}
	}
	return parsed.UTC()
}

func (c *Client) redactKeyURL(rawURL string) string {
	if c.apiKey == "" {
		return rawURL
	}
	return strings.ReplaceAll(rawURL, url.PathEscape(c.apiKey), "REDACTED")
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" || apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, apiKey, "REDACTED")
}

func isSportsDBCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errSportsDBTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
