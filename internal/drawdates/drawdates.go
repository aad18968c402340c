// Package drawdates resolves the draw date for each raffle week. When the
// remote configuration table is reachable it is authoritative; any failure
// degrades silently to the built-in fallback dates so the dashboard never
// breaks.
package drawdates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/tidwall/gjson"

	"raffle/internal/models"
)

// ErrUnavailable is returned from admin operations when the remote table was
// never configured.
var ErrUnavailable = errors.New("draw-date service not configured")

const requestTimeout = 10 * time.Second

// fallbackDates covers the upcoming weeks when no remote table is configured
// or reachable.
func fallbackDates() map[int]time.Time {
	return map[int]time.Time{
		4: time.Date(2025, time.December, 9, 0, 0, 0, 0, time.UTC),
		5: time.Date(2025, time.December, 16, 0, 0, 0, 0, time.UTC),
		6: time.Date(2025, time.December, 23, 0, 0, 0, 0, time.UTC),
	}
}

// Source reads and updates the remote raffle_config table. A Source built
// without both connection parameters is inert and only serves fallbacks.
type Source struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds a Source for the given service URL and access key. Either value
// being empty leaves the remote side disabled.
func New(serviceURL, serviceKey string) *Source {
	return &Source{
		baseURL: strings.TrimRight(serviceURL, "/"),
		apiKey:  serviceKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Available reports whether the remote table is configured.
func (s *Source) Available() bool {
	return s.baseURL != "" && s.apiKey != ""
}

// Dates returns the draw date per week. Remote errors are logged and
// swallowed; the fallback dates apply instead. This path must never fail
// into the rendering layer.
func (s *Source) Dates() map[int]time.Time {
	if !s.Available() {
		return fallbackDates()
	}
	configs, err := s.Configs()
	if err != nil {
		logger.Warningf("Draw-date table unreachable, using fallback dates: %v", err)
		return fallbackDates()
	}

	dates := make(map[int]time.Time, len(configs))
	for _, cfg := range configs {
		dates[cfg.Week] = cfg.DrawDate
	}
	return dates
}

// Configs fetches the full remote table ordered by week. Unlike Dates, the
// error is surfaced so the admin panel can show a non-fatal notice.
func (s *Source) Configs() ([]models.WeekConfig, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	url := s.baseURL + "/rest/v1/raffle_config?select=*&order=week.asc"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch raffle_config: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read raffle_config: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch raffle_config: status %d", resp.StatusCode)
	}

	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("fetch raffle_config: unexpected payload shape")
	}

	var configs []models.WeekConfig
	rows.ForEach(func(_, row gjson.Result) bool {
		cfg := models.WeekConfig{
			Week:     int(row.Get("week").Int()),
			IsActive: row.Get("is_active").Bool(),
		}
		if d := row.Get("draw_date"); d.Exists() {
			cfg.DrawDate = parseTimestamp(d.String())
		}
		if u := row.Get("updated_at"); u.Exists() {
			cfg.UpdatedAt = parseTimestamp(u.String())
		}
		configs = append(configs, cfg)
		return true
	})
	return configs, nil
}

// Update writes a new draw date for one week, stamping updated_at.
func (s *Source) Update(week int, drawDate time.Time) error {
	if !s.Available() {
		return ErrUnavailable
	}

	payload, err := json.Marshal(map[string]string{
		"draw_date":  drawDate.UTC().Format(time.RFC3339),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/rest/v1/raffle_config?week=eq.%d", s.baseURL, week)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("update week %d: %w", week, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("update week %d: status %d", week, resp.StatusCode)
	}
	logger.Infof("Draw date for week %d set to %s", week, drawDate.Format("2006-01-02"))
	return nil
}

func (s *Source) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// parseTimestamp accepts the timestamp shapes the table has held over time.
func parseTimestamp(v string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
