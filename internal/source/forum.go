package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"WorkflowRadar/internal/config"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/ports"
)

// ForumAdapter pulls the all-time top topics from a Discourse-style forum.
// The forum has no per-country view, so the coordinator queries it for one
// scope only; topic excerpts arrive as "cooked" HTML and are flattened to
// plain text before they leave the adapter.
type ForumAdapter struct {
	client  *http.Client
	cfg     config.ForumConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.SourceAdapter = (*ForumAdapter)(nil)

// NewForumAdapter wires an HTTP client and the pacing bucket.
func NewForumAdapter(client *http.Client, cfg config.ForumConfig, logger *slog.Logger) *ForumAdapter {
	interval := pacingInterval(cfg.PacingMillis)
	return &ForumAdapter{
		client:  httpClient(client),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Name identifies the adapter's platform tag.
func (a *ForumAdapter) Name() domain.Platform { return domain.PlatformForum }

type forumTopResponse struct {
	TopicList struct {
		Topics []forumTopic `json:"topics"`
	} `json:"topic_list"`
}

type forumTopic struct {
	ID         int64  `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Views      int64  `json:"views"`
	LikeCount  int64  `json:"like_count"`
	PostsCount int64  `json:"posts_count"`
	Posters    []struct {
		UserID int64 `json:"user_id"`
	} `json:"posters"`
}

// Fetch returns the capped top-topic list above the view floor. A malformed
// topic is skipped, never fatal; only an unreachable forum fails the fetch.
func (a *ForumAdapter) Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawRecord, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fetchErr(a.Name(), err)
	}

	reqURL := strings.TrimSuffix(a.cfg.BaseURL, "/") + "/top.json?period=all"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fetchErr(a.Name(), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", "WorkflowRadar/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fetchErr(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(a.Name(), fmt.Errorf("forum returned %s", resp.Status))
	}

	var top forumTopResponse
	if err := decodeJSON(resp.Body, &top); err != nil {
		return nil, fetchErr(a.Name(), err)
	}

	topics := top.TopicList.Topics
	if limit := a.cfg.TopicLimit; limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}

	records := make([]domain.RawRecord, 0, len(topics))
	for _, topic := range topics {
		if topic.Title == "" {
			a.logger.Warn("forum topic skipped", "id", topic.ID, "reason", "missing title")
			continue
		}
		if topic.Views < a.cfg.MinViews {
			continue
		}

		replies := topic.PostsCount - 1
		if replies < 0 {
			replies = 0
		}

		records = append(records, domain.RawRecord{
			Title:        truncate(topic.Title, 100),
			Description:  truncate(excerptText(topic.Excerpt), 300),
			URL:          fmt.Sprintf("%s/t/%s/%d", strings.TrimSuffix(a.cfg.BaseURL, "/"), topic.Slug, topic.ID),
			Platform:     domain.PlatformForum,
			Country:      scope.Country,
			Views:        topic.Views,
			Likes:        topic.LikeCount,
			Replies:      replies,
			Contributors: int64(len(topic.Posters)),
		})
	}

	a.logger.Info("forum fetch done", "records", len(records))
	return records, nil
}

// excerptText flattens a cooked-HTML excerpt into whitespace-normalized text.
func excerptText(cooked string) string {
	if cooked == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cooked))
	if err != nil {
		return cooked
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
