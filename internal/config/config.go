package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "LEADSCOUT_CONFIG"
	logLevelEnv       = "LEADSCOUT_LOG_LEVEL"
	outputDirEnv      = "LEADSCOUT_OUTPUT_DIR"
	llmModelEnv       = "LEADSCOUT_LLM_MODEL"
	ledgerDSNEnv      = "LEADSCOUT_LEDGER_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Scanner kinds understood by the application wiring.
const (
	ScannerHackerNews = "hackernews"
	ScannerReddit     = "reddit"
)

// LLM providers understood by the application wiring.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Output        OutputConfig       `yaml:"output"`
	LLM           LLMConfig          `yaml:"llm"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Insight       InsightConfig      `yaml:"insight"`
	Brand         BrandConfig        `yaml:"brand"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Notifications NotificationConfig `yaml:"notifications"`
	Platforms     []PlatformConfig   `yaml:"platforms"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the heartbeat should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OutputConfig is the root directory of per-platform artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LLMConfig defines how to contact the scoring service and which credentials rotate.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	KeyEnvs     []string      `yaml:"keyEnvs"`
	APIKeys     []string      `yaml:"apiKeys"`
	RotateDelay time.Duration `yaml:"rotateDelay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ScoringConfig bounds the batch prompt.
type ScoringConfig struct {
	MaxCandidates int `yaml:"maxCandidates"`
	BodyChars     int `yaml:"bodyChars"`
}

// InsightConfig bounds the per-platform strategic brief.
type InsightConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxLeads   int  `yaml:"maxLeads"`
	FieldChars int  `yaml:"fieldChars"`
}

// BrandConfig points at static brand documents; missing files fall back to defaults.
type BrandConfig struct {
	KnowledgeBase string `yaml:"knowledgeBase"`
	Soul          string `yaml:"soul"`
	Competitors   string `yaml:"competitors"`
	Strategy      string `yaml:"strategy"`
}

// LedgerConfig describes the optional SQL run ledger. An empty driver disables it.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// PlatformConfig describes a single platform with its scanner strategy.
type PlatformConfig struct {
	Name             string        `yaml:"name"`
	Label            string        `yaml:"label"`
	Tag              string        `yaml:"tag"`
	Scanner          string        `yaml:"scanner"`
	BaseURL          string        `yaml:"baseUrl"`
	Channels         []string      `yaml:"channels"`
	Limit            int           `yaml:"limit"`
	Sort             string        `yaml:"sort"`
	Lookback         time.Duration `yaml:"lookback"`
	ReplyCap         int           `yaml:"replyCap"`
	MaxDepth         int           `yaml:"maxDepth"`
	RequestDelay     time.Duration `yaml:"requestDelay"`
	RateLimitBackoff time.Duration `yaml:"rateLimitBackoff"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	cfg.collectKeys(os.Getenv)
	cfg.bindTimezone()
	cfg.normalize()

	return cfg
}

// LoadFile decodes the YAML file at path over the built-in defaults without touching the environment.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("cannot parse %s: %w", path, err)
	}

	if len(cfg.Platforms) == 0 {
		cfg.Platforms = defaultConfig().Platforms
	}
	cfg.bindTimezone()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// collectKeys appends credentials found in the configured environment variables, keeping first-seen order.
func (c *Config) collectKeys(getenv func(string) string) {
	seen := make(map[string]struct{}, len(c.LLM.APIKeys))
	keys := make([]string, 0, len(c.LLM.APIKeys)+len(c.LLM.KeyEnvs))

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		keys = append(keys, v)
	}

	for _, key := range c.LLM.APIKeys {
		add(key)
	}
	for _, name := range c.LLM.KeyEnvs {
		add(getenv(name))
	}
	c.LLM.APIKeys = keys
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

// normalize fills zero values a YAML file may leave behind.
func (c *Config) normalize() {
	if c.Scoring.MaxCandidates <= 0 {
		c.Scoring.MaxCandidates = 100
	}
	if c.Scoring.BodyChars <= 0 {
		c.Scoring.BodyChars = 400
	}
	if c.Insight.MaxLeads <= 0 {
		c.Insight.MaxLeads = 5
	}
	if c.Insight.FieldChars <= 0 {
		c.Insight.FieldChars = 300
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}

	for i := range c.Platforms {
		p := &c.Platforms[i]
		if p.Scanner == "" {
			p.Scanner = p.Name
		}
		if p.Tag == "" {
			p.Tag = p.Name
		}
		if p.Label == "" {
			p.Label = p.Name
		}
		if p.Limit <= 0 {
			p.Limit = 50
		}
		if p.ReplyCap <= 0 {
			p.ReplyCap = 20
		}
		if p.MaxDepth <= 0 {
			p.MaxDepth = 10
		}

		pacing := scannerPacing[p.Scanner]
		if p.RequestDelay <= 0 {
			p.RequestDelay = pacing.requestDelay
		}
		if p.RateLimitBackoff <= 0 {
			p.RateLimitBackoff = pacing.rateLimitBackoff
		}
		if p.Lookback <= 0 {
			p.Lookback = pacing.lookback
		}
	}
}

// platformPacing holds the per-scanner values a platform entry falls back to when YAML omits them.
type platformPacing struct {
	requestDelay     time.Duration
	rateLimitBackoff time.Duration
	lookback         time.Duration
}

var scannerPacing = map[string]platformPacing{
	ScannerHackerNews: {requestDelay: time.Second, rateLimitBackoff: 10 * time.Second, lookback: 24 * time.Hour},
	ScannerReddit:     {requestDelay: 1500 * time.Millisecond, rateLimitBackoff: 10 * time.Second},
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Output:    OutputConfig{Dir: "agents/scouts"},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Model:    "models/gemini-2.5-flash",
			Endpoint: "https://api.openai.com/v1/chat/completions",
			KeyEnvs: []string{
				"GEMINI_API_KEY", "GOOGLE_API_KEY",
				"GOOGLE_API_KEY1", "GOOGLE_API_KEY2",
				"GOOGLE_API_KEY3", "GOOGLE_API_KEY4", "GOOGLE_API_KEY5",
			},
			RotateDelay: 3 * time.Second,
			Timeout:     2 * time.Minute,
		},
		Scoring: ScoringConfig{MaxCandidates: 100, BodyChars: 400},
		Insight: InsightConfig{Enabled: true, MaxLeads: 5, FieldChars: 300},
		Brand: BrandConfig{
			KnowledgeBase: "brain/nitro_marketing.md",
			Soul:          "brain/SOUL.md",
			Competitors:   "brain/COMPETITORS.md",
			Strategy:      "brain/marketing_strategy.txt",
		},
		Ledger: LedgerConfig{Driver: "", DSN: "leadscout.db"},
		Platforms: []PlatformConfig{
			{
				Name:             "hackernews",
				Label:            "Hacker News",
				Tag:              "HN",
				Scanner:          ScannerHackerNews,
				BaseURL:          "https://hn.algolia.com",
				Channels:         []string{"Model Context Protocol", "MCP server", "Nitrostack", "mcp-server"},
				Limit:            50,
				Lookback:         24 * time.Hour,
				ReplyCap:         100,
				MaxDepth:         12,
				RequestDelay:     time.Second,
				RateLimitBackoff: 10 * time.Second,
			},
			{
				Name:             "reddit",
				Label:            "Reddit",
				Tag:              "Reddit",
				Scanner:          ScannerReddit,
				BaseURL:          "https://www.reddit.com",
				Channels:         []string{"mcp", "ClaudeAI", "LocalLLaMA"},
				Limit:            50,
				Sort:             "hot",
				ReplyCap:         20,
				MaxDepth:         8,
				RequestDelay:     1500 * time.Millisecond,
				RateLimitBackoff: 10 * time.Second,
			},
		},
	}
}
