package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Crawl      CrawlConfig      `yaml:"crawl" mapstructure:"crawl"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`

	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	TaxonomyPath string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`

	// GeocodeToken is accepted for forward compatibility; address geocoding
	// is an inert extension point and the token is never used.
	GeocodeToken string `yaml:"geocode_token" mapstructure:"geocode_token"`
}

// CrawlConfig configures fetching and traversal behavior.
type CrawlConfig struct {
	MaxPages         int           `yaml:"max_pages" mapstructure:"max_pages"`
	MaxDepth         int           `yaml:"max_depth" mapstructure:"max_depth"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimitDelay   time.Duration `yaml:"rate_limit_delay" mapstructure:"rate_limit_delay"`
	RetryAttempts    int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff     float64       `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	CacheExpireHours int           `yaml:"cache_expire_hours" mapstructure:"cache_expire_hours"`
	CachePath        string        `yaml:"cache_path" mapstructure:"cache_path"`
	RespectRobots    bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	UserAgents       []string      `yaml:"user_agents" mapstructure:"user_agents"`
	PriorityPatterns []string      `yaml:"priority_patterns" mapstructure:"priority_patterns"`

	UseRenderFallback bool          `yaml:"use_render_fallback" mapstructure:"use_render_fallback"`
	RenderTimeout     time.Duration `yaml:"render_timeout" mapstructure:"render_timeout"`
}

// CacheTTL converts the configured expiry hours to a duration.
func (c CrawlConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheExpireHours) * time.Hour
}

// ExtractionConfig configures candidate weighting and text limits.
type ExtractionConfig struct {
	SourceWeights   map[string]float64 `yaml:"source_weights" mapstructure:"source_weights"`
	MethodWeights   map[string]float64 `yaml:"method_weights" mapstructure:"method_weights"`
	ValidatorBonus  map[string]float64 `yaml:"validator_bonuses" mapstructure:"validator_bonuses"`
	PhoneRegion     string             `yaml:"phone_region" mapstructure:"phone_region"`
	CheckMX         bool               `yaml:"check_mx" mapstructure:"check_mx"`
	BackgroundWords int                `yaml:"background_max_words" mapstructure:"background_max_words"`
	SloganWords     int                `yaml:"slogan_max_words" mapstructure:"slogan_max_words"`
	ServicesMax     int                `yaml:"services_max_count" mapstructure:"services_max_count"`
}

// SourceWeight returns the configured weight for a source category, or the
// fallback when the category is not configured.
func (c ExtractionConfig) SourceWeight(category string, fallback float64) float64 {
	if w, ok := c.SourceWeights[category]; ok {
		return w
	}
	return fallback
}

// MethodWeight returns the configured weight for a method category, or the
// fallback when the category is not configured.
func (c ExtractionConfig) MethodWeight(category string, fallback float64) float64 {
	if w, ok := c.MethodWeights[category]; ok {
		return w
	}
	return fallback
}

// Bonus returns the configured validator bonus for a category, or the
// fallback when the category is not configured.
func (c ExtractionConfig) Bonus(category string, fallback float64) float64 {
	if b, ok := c.ValidatorBonus[category]; ok {
		return b
	}
	return fallback
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRUTHSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("output_dir", "out")
	v.SetDefault("crawl.max_pages", 20)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.timeout", "10s")
	v.SetDefault("crawl.rate_limit_delay", "1s")
	v.SetDefault("crawl.retry_attempts", 3)
	v.SetDefault("crawl.retry_backoff", 2.0)
	v.SetDefault("crawl.cache_expire_hours", 24)
	v.SetDefault("crawl.respect_robots", true)
	v.SetDefault("crawl.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	})
	v.SetDefault("crawl.priority_patterns", []string{
		"contact", "about", "service", "location", "team", "who-we-are",
		"our-story", "meet", "get-in-touch", "reach-us",
	})
	v.SetDefault("crawl.use_render_fallback", true)
	v.SetDefault("crawl.render_timeout", "30s")
	v.SetDefault("extraction.source_weights", map[string]float64{
		"jsonld":    1.0,
		"microdata": 0.95,
		"meta":      0.9,
		"header":    0.85,
		"nav":       0.7,
		"main":      0.7,
		"footer":    0.6,
		"body":      0.5,
	})
	v.SetDefault("extraction.method_weights", map[string]float64{
		"direct_attribute":    1.0,
		"semantic_extraction": 0.9,
		"pattern_matching":    0.7,
		"heuristic":           0.6,
	})
	v.SetDefault("extraction.validator_bonuses", map[string]float64{
		"email_mx_valid": 0.1,
		"phone_valid":    0.1,
		"color_wcag_aa":  0.1,
	})
	v.SetDefault("extraction.phone_region", "US")
	v.SetDefault("extraction.check_mx", true)
	v.SetDefault("extraction.background_max_words", 50)
	v.SetDefault("extraction.slogan_max_words", 8)
	v.SetDefault("extraction.services_max_count", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
