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

var errRateLimited = errors.New("rate limit exceeded")

// GitHubAdapter searches repositories where developers publish workflow
// templates. Stars and forks are real popularity evidence, mapped into the
// common metric vocabulary: watchers→views, stars→likes, issues→comments,
// forks→replies.
type GitHubAdapter struct {
	client  *http.Client
	cfg     config.GitHubConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.SourceAdapter = (*GitHubAdapter)(nil)

// NewGitHubAdapter wires an HTTP client and the pacing bucket.
func NewGitHubAdapter(client *http.Client, cfg config.GitHubConfig, logger *slog.Logger) *GitHubAdapter {
	interval := pacingInterval(cfg.PacingMillis)
	return &GitHubAdapter{
		client:  httpClient(client),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Name identifies the adapter's platform tag.
func (a *GitHubAdapter) Name() domain.Platform { return domain.PlatformGitHub }

type repoSearchResponse struct {
	Items []struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		HTMLURL         string `json:"html_url"`
		StargazersCount int64  `json:"stargazers_count"`
		ForksCount      int64  `json:"forks_count"`
		WatchersCount   int64  `json:"watchers_count"`
		OpenIssuesCount int64  `json:"open_issues_count"`
	} `json:"items"`
}

// Fetch runs the fixed query set. Hitting the search rate limit stops the
// loop but keeps whatever was already collected; only an empty-handed
// failure surfaces as a FetchError.
func (a *GitHubAdapter) Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawRecord, error) {
	queries := scope.Keywords
	if len(queries) == 0 {
		queries = a.cfg.Queries
	}

	records := make([]domain.RawRecord, 0, len(queries)*a.cfg.PerQuery)

	for _, query := range queries {
		batch, err := a.search(ctx, query, scope.Country)
		if err != nil {
			if errors.Is(err, errRateLimited) || ctx.Err() != nil {
				if len(records) > 0 {
					a.logger.Warn("github fetch cut short", "error", err, "collected", len(records))
					return records, nil
				}
				return nil, fetchErr(a.Name(), err)
			}
			a.logger.Warn("github query skipped", "query", query, "error", err)
			continue
		}
		records = append(records, batch...)
	}

	a.logger.Info("github fetch done", "country", scope.Country, "records", len(records))
	return records, nil
}

func (a *GitHubAdapter) search(ctx context.Context, query string, country domain.Country) ([]domain.RawRecord, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":        {query},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {strconv.Itoa(a.cfg.PerQuery)},
	}
	reqURL := strings.TrimSuffix(a.cfg.BaseURL, "/") + "/search/repositories?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "WorkflowRadar/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github returned %s", resp.Status)
	}

	var result repoSearchResponse
	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(result.Items))
	for _, repo := range result.Items {
		if repo.StargazersCount < a.cfg.MinStars {
			continue
		}
		records = append(records, domain.RawRecord{
			Title:       repoTitle(repo.Name),
			Description: truncate(repo.Description, 300),
			URL:         repo.HTMLURL,
			Platform:    domain.PlatformGitHub,
			Country:     country,
			Views:       repo.WatchersCount,
			Likes:       repo.StargazersCount,
			Comments:    repo.OpenIssuesCount,
			Replies:     repo.ForksCount,
		})
	}
	return records, nil
}

// repoTitle turns a repo slug like "n8n-workflow_pack" into "N8n Workflow Pack".
func repoTitle(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
