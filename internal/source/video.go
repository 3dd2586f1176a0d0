package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"WorkflowRadar/internal/config"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/ports"
)

// errKeysExhausted aborts the keyword loop once every API key is rejected.
var errKeysExhausted = errors.New("all api keys exhausted")

// VideoAdapter queries the video platform's search endpoint per keyword and
// resolves view/like/comment statistics in a second batched call, the way
// the platform's v3 API splits search from statistics.
type VideoAdapter struct {
	client  *http.Client
	cfg     config.VideoConfig
	keys    *KeyRing
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.SourceAdapter = (*VideoAdapter)(nil)

// NewVideoAdapter wires an HTTP client, the key ring, and the pacing bucket.
func NewVideoAdapter(client *http.Client, cfg config.VideoConfig, keys *KeyRing, logger *slog.Logger) *VideoAdapter {
	interval := pacingInterval(cfg.PacingMillis)
	return &VideoAdapter{
		client:  httpClient(client),
		cfg:     cfg,
		keys:    keys,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Name identifies the adapter's platform tag.
func (a *VideoAdapter) Name() domain.Platform { return domain.PlatformVideo }

// Keys exposes the ring for status reporting and the daily reset hook.
func (a *VideoAdapter) Keys() *KeyRing { return a.keys }

type videoSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videoStatsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Fetch walks the curated keyword list for one country. A failing keyword is
// skipped; the fetch only fails as a whole when no key is usable or the
// transport is gone before anything was collected.
func (a *VideoAdapter) Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawRecord, error) {
	if a.keys.Exhausted() {
		return nil, fetchErr(a.Name(), errKeysExhausted)
	}

	keywords := scope.Keywords
	if len(keywords) == 0 {
		keywords = a.cfg.Keywords
	}
	if max := a.cfg.MaxKeywords; max > 0 && len(keywords) > max {
		keywords = keywords[:max]
	}

	records := make([]domain.RawRecord, 0, len(keywords)*a.cfg.ResultsPerKeyword)

	for _, keyword := range keywords {
		batch, err := a.fetchKeyword(ctx, keyword, scope.Country)
		if err != nil {
			if errors.Is(err, errKeysExhausted) || ctx.Err() != nil {
				if len(records) > 0 {
					a.logger.Warn("video fetch cut short", "error", err, "collected", len(records))
					return records, nil
				}
				return nil, fetchErr(a.Name(), err)
			}
			a.logger.Warn("video keyword skipped", "keyword", keyword, "error", err)
			continue
		}
		records = append(records, batch...)
	}

	a.logger.Info("video fetch done", "country", scope.Country, "records", len(records))
	return records, nil
}

func (a *VideoAdapter) fetchKeyword(ctx context.Context, keyword string, country domain.Country) ([]domain.RawRecord, error) {
	searchParams := url.Values{
		"part":       {"snippet"},
		"q":          {keyword},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(a.cfg.ResultsPerKeyword)},
		"regionCode": {string(country)},
		"order":      {"relevance"},
	}

	var search videoSearchResponse
	if err := a.doRequest(ctx, "/search", searchParams, &search); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	statsParams := url.Values{
		"part": {"statistics,snippet"},
		"id":   {strings.Join(ids, ",")},
	}

	var stats videoStatsResponse
	if err := a.doRequest(ctx, "/videos", statsParams, &stats); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(stats.Items))
	for _, video := range stats.Items {
		views := parseCount(video.Statistics.ViewCount)
		if views < a.cfg.MinViews {
			continue
		}
		records = append(records, domain.RawRecord{
			Title:    truncate(video.Snippet.Title, 100),
			URL:      "https://youtube.com/watch?v=" + video.ID,
			Platform: domain.PlatformVideo,
			Country:  country,
			Views:    views,
			Likes:    parseCount(video.Statistics.LikeCount),
			Comments: parseCount(video.Statistics.CommentCount),
		})
	}
	return records, nil
}

// doRequest performs one paced, keyed API call, rotating the key ring on a
// quota/auth rejection and retrying until the ring runs dry.
func (a *VideoAdapter) doRequest(ctx context.Context, path string, params url.Values, out any) error {
	for {
		key, ok := a.keys.Current()
		if !ok {
			return errKeysExhausted
		}

		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		params.Set("key", key)
		reqURL := strings.TrimSuffix(a.cfg.BaseURL, "/") + path + "?" + params.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "WorkflowRadar/1.0")

		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("request %s: %w", path, err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err = decodeJSON(resp.Body, out)
			resp.Body.Close()
			if err != nil {
				return err
			}
			a.keys.RecordSuccess()
			return nil
		case http.StatusForbidden:
			resp.Body.Close()
			a.logger.Warn("video key rejected, rotating", "path", path)
			if !a.keys.Rotate() {
				return errKeysExhausted
			}
		default:
			status := resp.Status
			resp.Body.Close()
			return fmt.Errorf("video api returned %s", status)
		}
	}
}

func parseCount(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
