package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Fetcher kinds accepted by ScraperConfig.Fetcher
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config is the struct that holds the configuration of the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	RabbitMq RabbitMQConfig `mapstructure:"rabbitmq"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	WebPanel WebPanelConfig `mapstructure:"webpanel"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel int    `mapstructure:"logLevel"`
	Env      string `mapstructure:"env"`
}

type RabbitMQConfig struct {
	URL              string     `mapstructure:"url"`
	Exchange         string     `mapstructure:"exchange"`
	Queue            QueueNames `mapstructure:"queue"`
	ReconnectRetries int        `mapstructure:"reconnectRetries"`
	ReconnectTimeout int        `mapstructure:"reconnectTimeout"`
}

// ScraperConfig describes the search endpoint and where discovered links go.
// The defaults reproduce the fixed query the crawler was built for.
type ScraperConfig struct {
	SearchURL  string `mapstructure:"searchURL"`
	Keyword    string `mapstructure:"keyword"`
	PageSize   int    `mapstructure:"pageSize"`
	Host       string `mapstructure:"host"`
	OutputFile string `mapstructure:"outputFile"`
	Fetcher    string `mapstructure:"fetcher"`
	UserAgent  string `mapstructure:"userAgent"`
	// Timeout in seconds, 0 leaves the transport default in place
	Timeout int `mapstructure:"timeout"`
}

type WebPanelConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Recent int    `mapstructure:"recent"`
}

type QueueNames struct {
	LinkQueue string `mapstructure:"linkQueue"`
	LogQueue  string `mapstructure:"logQueue"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bililinks")
	v.SetDefault("app.logLevel", 4)
	v.SetDefault("app.env", "development")

	v.SetDefault("scraper.searchURL", "https://search.bilibili.com/all")
	v.SetDefault("scraper.keyword", "庆余年2")
	v.SetDefault("scraper.pageSize", 36)
	v.SetDefault("scraper.host", "bilibili.com")
	v.SetDefault("scraper.outputFile", "庆余年2视频链接.txt")
	v.SetDefault("scraper.fetcher", FetcherHTTP)
	v.SetDefault("scraper.userAgent", "")
	v.SetDefault("scraper.timeout", 0)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "bililinks")
	v.SetDefault("rabbitmq.queue.linkQueue", "scraper_links")
	v.SetDefault("rabbitmq.queue.logQueue", "scraper_log")
	v.SetDefault("rabbitmq.reconnectRetries", 3)
	v.SetDefault("rabbitmq.reconnectTimeout", 2000)

	v.SetDefault("webpanel.host", "0.0.0.0")
	v.SetDefault("webpanel.port", 8080)
	v.SetDefault("webpanel.recent", 100)
}

// Load config from .env, config.json and the environment, in that order of precedence
// (environment wins).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Scraper.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports the first unusable scraper setting.
func (s *ScraperConfig) Validate() error {
	switch {
	case s.SearchURL == "":
		return errors.New("scraper.searchURL is required")
	case s.Keyword == "":
		return errors.New("scraper.keyword is required")
	case s.PageSize <= 0:
		return fmt.Errorf("scraper.pageSize must be positive, got %d", s.PageSize)
	case s.Host == "":
		return errors.New("scraper.host is required")
	case s.OutputFile == "":
		return errors.New("scraper.outputFile is required")
	case s.Timeout < 0:
		return fmt.Errorf("scraper.timeout must not be negative, got %d", s.Timeout)
	}

	if s.Fetcher != FetcherHTTP && s.Fetcher != FetcherBrowser {
		return fmt.Errorf("scraper.fetcher must be %q or %q, got %q", FetcherHTTP, FetcherBrowser, s.Fetcher)
	}
	return nil
}

// Get config for app
func (c *Config) GetAppConfig() *AppConfig {
	return &c.App
}

// Get config for scraping
func (c *Config) GetScraperConfig() *ScraperConfig {
	return &c.Scraper
}

// Get config for web panel
func (c *Config) GetWebPanelConfig() *WebPanelConfig {
	return &c.WebPanel
}

// Get config for RabbitMQ
func (c *Config) GetRabbitMQConfig() *RabbitMQConfig {
	return &c.RabbitMq
}
