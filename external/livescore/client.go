package livescore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://livescore-api.com"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20

	pathFixtures    = "/api-client/fixtures/list.json"
	pathLiveMatches = "/api-client/matches/live.json"
	pathMatchEvents = "/api-client/scores/events.json"
	pathTable       = "/api-client/leagues/table.json"
)

var credentialParamRegex = regexp.MustCompile(`(key|secret)=[^&\s"']+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Key            string
	Secret         string
	CompetitionIDs []string
	Timeout        time.Duration
	Gate           *QuotaGate
	Logger         *logging.Logger
}

// Client talks to the live-score provider. Every request first passes the quota gate.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	key            string
	secret         string
	competitionIDs []string
	gate           *QuotaGate
	logger         *logging.Logger
	now            func() time.Time
}

var _ usecase.LiveScoreProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		key:            strings.TrimSpace(cfg.Key),
		secret:         strings.TrimSpace(cfg.Secret),
		competitionIDs: match.DistinctKeys(cfg.CompetitionIDs),
		gate:           cfg.Gate,
		logger:         logger,
		now:            time.Now,
	}
}

func (c *Client) FetchFixturesToday(ctx context.Context, competitionID string) (usecase.FixturesResult, error) {
	query := url.Values{}
	query.Set("competition_id", strings.TrimSpace(competitionID))
	query.Set("date", c.now().UTC().Format(quotaDayLayout))

	var envelope fixturesEnvelope
	if _, err := c.doJSON(ctx, pathFixtures, query, &envelope); err != nil {
		return usecase.FixturesResult{}, fmt.Errorf("fetch fixtures competition_id=%s: %w", competitionID, err)
	}

	out := usecase.FixturesResult{Success: envelope.Success}
	if envelope.Data == nil {
		return out, nil
	}
	out.Fixtures = make([]usecase.ProviderFixture, 0, len(envelope.Data.Fixtures))
	for _, item := range envelope.Data.Fixtures {
		out.Fixtures = append(out.Fixtures, usecase.ProviderFixture{
			ID:          item.ID,
			Time:        string(item.Time),
			Competition: item.Competition,
			CountryName: item.Country.Name,
			Home:        item.Home,
			Away:        item.Away,
		})
	}
	return out, nil
}

func (c *Client) FetchLiveMatches(ctx context.Context) (usecase.LiveMatchesResult, error) {
	query := url.Values{}
	if len(c.competitionIDs) > 0 {
		query.Set("competition_id", strings.Join(c.competitionIDs, ","))
	}

	var envelope liveMatchesEnvelope
	if _, err := c.doJSON(ctx, pathLiveMatches, query, &envelope); err != nil {
		return usecase.LiveMatchesResult{}, fmt.Errorf("fetch live matches: %w", err)
	}

	out := usecase.LiveMatchesResult{Success: envelope.Success}
	if envelope.Data == nil {
		return out, nil
	}
	now := c.now().UTC()
	out.Matches = make([]match.State, 0, len(envelope.Data.Match))
	for _, item := range envelope.Data.Match {
		item.LastEvents = stampEvents(item.LastEvents, now)
		out.Matches = append(out.Matches, item)
	}
	return out, nil
}

func (c *Client) FetchMatchEvents(ctx context.Context, providerMatchID match.ID) (usecase.MatchEventsResult, error) {
	if providerMatchID <= 0 {
		return usecase.MatchEventsResult{}, fmt.Errorf("%w: provider match id must be greater than zero", usecase.ErrInvalidInput)
	}
	query := url.Values{}
	query.Set("id", providerMatchID.String())

	var envelope matchEventsEnvelope
	if _, err := c.doJSON(ctx, pathMatchEvents, query, &envelope); err != nil {
		return usecase.MatchEventsResult{}, fmt.Errorf("fetch match events id=%d: %w", providerMatchID, err)
	}

	out := usecase.MatchEventsResult{Success: envelope.Success}
	if envelope.Data != nil {
		out.Events = stampEvents(envelope.Data.Event, c.now().UTC())
	}
	return out, nil
}

// FetchCompetitionTable returns the provider's table payload untouched.
func (c *Client) FetchCompetitionTable(ctx context.Context, competitionID string) (string, error) {
	query := url.Values{}
	query.Set("competition_id", strings.TrimSpace(competitionID))

	raw, err := c.doJSON(ctx, pathTable, query, nil)
	if err != nil {
		return "", fmt.Errorf("fetch competition table competition_id=%s: %w", competitionID, err)
	}
	return string(raw), nil
}

// doJSON decodes into target when it is non-nil; otherwise it only checks the body is valid JSON.
func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) ([]byte, error) {
	if c.gate != nil {
		if err := c.gate.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	values := url.Values{}
	for key, items := range query {
		for _, item := range items {
			values.Add(key, item)
		}
	}
	values.Set("key", c.key)
	values.Set("secret", c.secret)
	fullURL := c.baseURL + path + "?" + values.Encode()

	raw, err := c.executeRequest(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	if target == nil {
		if !sonic.Valid(raw) {
			return nil, crerr.Wrapf(usecase.ErrPayloadShape, "invalid provider payload path=%s body=%s", path, abbreviateBody(raw))
		}
		return raw, nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, crerr.Wrapf(usecase.ErrPayloadShape, "decode provider payload path=%s: %s", path, c.sanitize(err.Error()))
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(usecase.ErrUpstreamTransient, c.sanitize("build request: "+err.Error()))
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnContext(ctx, "livescore request failed", "url", c.redactURL(fullURL), "error", c.sanitize(err.Error()))
		return nil, crerr.Wrapf(usecase.ErrUpstreamTransient, "send request: %s", c.sanitize(err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, crerr.Wrapf(usecase.ErrUpstreamTransient, "read response body: %s", c.sanitize(err.Error()))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, crerr.Wrapf(usecase.ErrUpstreamUnauthorized, "provider status=%d body=%s", resp.StatusCode, c.sanitize(abbreviateBody(raw)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, crerr.Wrapf(usecase.ErrQuotaExceeded, "provider status=%d body=%s", resp.StatusCode, c.sanitize(abbreviateBody(raw)))
	default:
		return nil, crerr.Wrapf(usecase.ErrUpstreamTransient, "provider status=%d body=%s", resp.StatusCode, c.sanitize(abbreviateBody(raw)))
	}
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	for _, secret := range []string{c.key, c.secret} {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return credentialParamRegex.ReplaceAllString(value, "${1}=REDACTED")
}

func (c *Client) redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return c.sanitize(rawURL)
	}
	query := parsed.Query()
	for _, name := range []string{"key", "secret"} {
		if query.Has(name) {
			query.Set(name, "REDACTED")
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// stampEvents fills a missing ingestion timestamp with now.
func stampEvents(events []match.Event, now time.Time) []match.Event {
	if len(events) == 0 {
		return events
	}
	out := make([]match.Event, len(events))
	for i, e := range events {
		if e.TS.IsZero() {
			e.TS = now
		}
		out[i] = e
	}
	return out
}

// ParseCompetitionIDs splits a CSV of positive numeric ids, dropping anything else.
func ParseCompetitionIDs(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if id, err := strconv.ParseInt(part, 10, 64); err != nil || id <= 0 {
			continue
		}
		out = append(out, part)
	}
	return match.DistinctKeys(out)
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
