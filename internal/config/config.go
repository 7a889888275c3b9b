// Load envs from .env
// Load YAML config
// Override with env vars, fill defaults, validate

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://iworkfor.nsw.gov.au/jobs/all-keywords/all-agencies/all-organisations-entities/all-categories/all-locations/all-worktypes"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// SpiderConfig is immutable once a spider has been built from it.
type SpiderConfig struct {
	BaseURL string `yaml:"base_url"`
	// MaxConcurrency is not used by the crawl loop itself; the runner uses it
	// to fan out independent spiders.
	MaxConcurrency int           `yaml:"max_concurrency"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	UserAgent      string        `yaml:"user_agent"`
	// PageSize overrides the results-per-page control. 0 picks the largest option.
	PageSize int `yaml:"page_size"`

	Headless       bool `yaml:"headless"`
	ViewportWidth  int  `yaml:"viewport_width"`
	ViewportHeight int  `yaml:"viewport_height"`

	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	WaitTimeout       time.Duration `yaml:"wait_timeout"`
	PageDelay         time.Duration `yaml:"page_delay"`
	PageDelayJitter   time.Duration `yaml:"page_delay_jitter"`

	Selectors Selectors `yaml:"selectors"`
	Keywords  Keywords  `yaml:"keywords"`
}

// FilterConfig decides which listings go on to detail extraction.
type FilterConfig struct {
	SkipClosed bool `yaml:"skip_closed"`
	// MaxAge drops listings posted longer ago than this; 0 keeps all.
	MaxAge time.Duration `yaml:"max_age"`
	// Include keeps only titles matching one of these phrases when non-empty.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type Config struct {
	Spider SpiderConfig `yaml:"spider"`
	Filter FilterConfig `yaml:"filter"`

	//Fixtures
	SaveTestData bool   `yaml:"save_test_data"`
	UseTestData  bool   `yaml:"use_test_data"`
	TestDataDir  string `yaml:"test_data_dir"`
	RedisURL     string `yaml:"redis_url"`

	//Run options
	MaxRecords    int           `yaml:"max_records"`
	DetailRate    time.Duration `yaml:"detail_rate"`
	SeenTTL       time.Duration `yaml:"seen_ttl"`
	Schedule      string        `yaml:"schedule"`
	OutputDir     string        `yaml:"output_dir"`
	CookiesPath   string        `yaml:"cookies_path"`
	CachePath     string        `yaml:"cache_path"`
	ScreenshotDir string        `yaml:"screenshot_dir"`

	//Sinks and notifications
	DatabaseURL    string `yaml:"database_url"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{Spider: SpiderConfig{Headless: true}}
	cfg.applyDefaults()
	return cfg
}

// Load reads .env, then the YAML file at path (missing file is only a
// warning), then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Spider: SpiderConfig{Headless: true}}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Could not read %s: %v", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SPIDER_BASE_URL"); v != "" {
		c.Spider.BaseURL = v
	}
	for name, dst := range map[string]*bool{
		"SAVE_TEST_DATA": &c.SaveTestData,
		"USE_TEST_DATA":  &c.UseTestData,
		"HEADLESS":       &c.Spider.Headless,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = b
	}
	if v := os.Getenv("TEST_DATA_DIR"); v != "" {
		c.TestDataDir = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.Spider
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.MaxConcurrency <= 0 {
		s.MaxConcurrency = 1
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = 3
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 2 * time.Second
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.ViewportWidth == 0 {
		s.ViewportWidth = 1920
	}
	if s.ViewportHeight == 0 {
		s.ViewportHeight = 1080
	}
	if s.NavigationTimeout <= 0 {
		s.NavigationTimeout = 60 * time.Second
	}
	if s.WaitTimeout <= 0 {
		s.WaitTimeout = 15 * time.Second
	}
	if s.PageDelay <= 0 {
		s.PageDelay = 2 * time.Second
	}
	if s.PageDelayJitter <= 0 {
		s.PageDelayJitter = time.Second
	}
	s.Selectors = s.Selectors.withDefaults()
	s.Keywords = s.Keywords.withDefaults()

	if c.TestDataDir == "" {
		c.TestDataDir = "testdata/captures"
	}
	if c.OutputDir == "" {
		c.OutputDir = "logs"
	}
	if c.CachePath == "" {
		c.CachePath = ".cache"
	}
	if c.SeenTTL == 0 {
		c.SeenTTL = 30 * 24 * time.Hour
	}
}

// Validate reports configuration that would make a run meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Spider.BaseURL == "" {
		errs = append(errs, errors.New("spider.base_url is required"))
	}
	if c.Spider.PageSize < 0 {
		errs = append(errs, fmt.Errorf("spider.page_size must be >= 0, got %d", c.Spider.PageSize))
	}
	if c.Filter.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("filter.max_age must be >= 0, got %s", c.Filter.MaxAge))
	}
	if c.MaxRecords < 0 {
		errs = append(errs, fmt.Errorf("max_records must be >= 0, got %d", c.MaxRecords))
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	return errors.Join(errs...)
}
