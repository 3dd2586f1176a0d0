package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "WORKFLOW_RADAR_CONFIG"
	httpAddrEnv     = "WORKFLOW_RADAR_ADDR"
	dataDirEnv      = "WORKFLOW_RADAR_DATA_DIR"
	videoAPIKeyEnv  = "VIDEO_API_KEY"
	videoKeySlots   = 5
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	HTTP        HTTPConfig        `yaml:"http"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Export      ExportConfig      `yaml:"export"`
	Sources     SourcesConfig     `yaml:"sources"`
	Countries   []string          `yaml:"countries"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig describes the listen address of the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when the daily collection cycle should run.
type SchedulerConfig struct {
	Hour     int            `yaml:"hour"`
	Minute   int            `yaml:"minute"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// AggregationConfig bounds one collection cycle.
type AggregationConfig struct {
	CycleTimeoutSeconds int `yaml:"cycleTimeoutSeconds"`
}

// CycleTimeout returns the maximum wall-clock time one cycle may take.
func (a AggregationConfig) CycleTimeout() time.Duration {
	if a.CycleTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.CycleTimeoutSeconds) * time.Second
}

// ExportConfig points export/auto-save output at a directory.
type ExportConfig struct {
	DataDir  string `yaml:"dataDir"`
	AutoSave bool   `yaml:"autoSave"`
}

// SourcesConfig groups per-adapter tuning.
type SourcesConfig struct {
	Video  VideoConfig  `yaml:"video"`
	Forum  ForumConfig  `yaml:"forum"`
	Trends TrendsConfig `yaml:"trends"`
	GitHub GitHubConfig `yaml:"github"`
}

// VideoConfig tunes the video-platform adapter.
type VideoConfig struct {
	BaseURL           string   `yaml:"baseUrl"`
	APIKeys           []string `yaml:"apiKeys"`
	Keywords          []string `yaml:"keywords"`
	MaxKeywords       int      `yaml:"maxKeywords"`
	ResultsPerKeyword int      `yaml:"resultsPerKeyword"`
	MinViews          int64    `yaml:"minViews"`
	PacingMillis      int      `yaml:"pacingMillis"`
}

// ForumConfig tunes the forum adapter.
type ForumConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	TopicLimit   int    `yaml:"topicLimit"`
	MinViews     int64  `yaml:"minViews"`
	PacingMillis int    `yaml:"pacingMillis"`
}

// TrendsConfig tunes the search-trend adapter.
type TrendsConfig struct {
	VolumeMultipliers map[string]float64 `yaml:"volumeMultipliers"`
}

// GitHubConfig tunes the repository-search adapter.
type GitHubConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	Queries      []string `yaml:"queries"`
	PerQuery     int      `yaml:"perQuery"`
	MinStars     int64    `yaml:"minStars"`
	PacingMillis int      `yaml:"pacingMillis"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Countries) == 0 {
		cfg.Countries = defaultConfig().Countries
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(dataDirEnv); v != "" {
		c.Export.DataDir = v
	}

	// VIDEO_API_KEY, VIDEO_API_KEY1..VIDEO_API_KEY4 replace the file-provided
	// key set when at least one is present.
	var keys []string
	for i := 0; i < videoKeySlots; i++ {
		name := videoAPIKeyEnv
		if i > 0 {
			name = videoAPIKeyEnv + string(rune('0'+i))
		}
		if v := os.Getenv(name); v != "" {
			keys = append(keys, v)
		}
	}
	if len(keys) > 0 {
		c.Sources.Video.APIKeys = keys
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}

	if override.Scheduler.Hour != 0 || override.Scheduler.Minute != 0 {
		base.Scheduler.Hour = override.Scheduler.Hour
		base.Scheduler.Minute = override.Scheduler.Minute
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Aggregation.CycleTimeoutSeconds != 0 {
		base.Aggregation = override.Aggregation
	}

	if override.Export.DataDir != "" {
		base.Export.DataDir = override.Export.DataDir
	}
	if override.Export.AutoSave {
		base.Export.AutoSave = true
	}

	base.Sources.Video = mergeVideo(base.Sources.Video, override.Sources.Video)
	base.Sources.Forum = mergeForum(base.Sources.Forum, override.Sources.Forum)
	if len(override.Sources.Trends.VolumeMultipliers) > 0 {
		base.Sources.Trends = override.Sources.Trends
	}
	base.Sources.GitHub = mergeGitHub(base.Sources.GitHub, override.Sources.GitHub)

	if len(override.Countries) > 0 {
		base.Countries = override.Countries
	}

	return base
}

func mergeVideo(base, override VideoConfig) VideoConfig {
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if len(override.APIKeys) > 0 {
		base.APIKeys = override.APIKeys
	}
	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}
	if override.MaxKeywords != 0 {
		base.MaxKeywords = override.MaxKeywords
	}
	if override.ResultsPerKeyword != 0 {
		base.ResultsPerKeyword = override.ResultsPerKeyword
	}
	if override.MinViews != 0 {
		base.MinViews = override.MinViews
	}
	if override.PacingMillis != 0 {
		base.PacingMillis = override.PacingMillis
	}
	return base
}

func mergeForum(base, override ForumConfig) ForumConfig {
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TopicLimit != 0 {
		base.TopicLimit = override.TopicLimit
	}
	if override.MinViews != 0 {
		base.MinViews = override.MinViews
	}
	if override.PacingMillis != 0 {
		base.PacingMillis = override.PacingMillis
	}
	return base
}

func mergeGitHub(base, override GitHubConfig) GitHubConfig {
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if len(override.Queries) > 0 {
		base.Queries = override.Queries
	}
	if override.PerQuery != 0 {
		base.PerQuery = override.PerQuery
	}
	if override.MinStars != 0 {
		base.MinStars = override.MinStars
	}
	if override.PacingMillis != 0 {
		base.PacingMillis = override.PacingMillis
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:     LoggingConfig{Level: "info"},
		HTTP:        HTTPConfig{Addr: ":8080"},
		Scheduler:   SchedulerConfig{Hour: 2, Minute: 0, Timezone: defaultTimezone, location: tz},
		Aggregation: AggregationConfig{CycleTimeoutSeconds: 300},
		Export:      ExportConfig{DataDir: "data", AutoSave: true},
		Countries:   []string{"US", "IN"},
		Sources: SourcesConfig{
			Video: VideoConfig{
				BaseURL: "https://www.googleapis.com/youtube/v3",
				Keywords: []string{
					"n8n automation workflow",
					"n8n integration tutorial",
					"n8n slack automation",
					"n8n gmail workflow",
					"n8n google sheets integration",
					"n8n webhook automation",
					"n8n discord bot setup",
					"n8n chatgpt integration",
					"n8n openai automation",
					"n8n airtable sync",
					"n8n notion database",
					"n8n api automation",
					"n8n crm integration",
					"n8n zapier alternative",
					"n8n make alternative",
					"n8n workflow templates",
					"n8n no code automation",
					"n8n low code platform",
				},
				MaxKeywords:       15,
				ResultsPerKeyword: 5,
				MinViews:          100,
				PacingMillis:      1000,
			},
			Forum: ForumConfig{
				BaseURL:      "https://community.n8n.io",
				TopicLimit:   30,
				MinViews:     50,
				PacingMillis: 300,
			},
			Trends: TrendsConfig{
				VolumeMultipliers: map[string]float64{"US": 1.0, "IN": 0.6},
			},
			GitHub: GitHubConfig{
				BaseURL: "https://api.github.com",
				Queries: []string{
					"n8n workflow automation",
					"n8n template",
					"n8n integration examples",
					"n8n workflows collection",
				},
				PerQuery:     5,
				MinStars:     3,
				PacingMillis: 1500,
			},
		},
	}
}
