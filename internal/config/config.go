package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Переменные окружения, переопределяющие значения из файла конфигурации.
const (
	EnvAPIKey        = "NYT_API_KEY"
	EnvBaseURL       = "NYT_BASE_URL"
	EnvServerAddress = "SERVER_ADDRESS"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config представляет основную конфигурацию NYTimes-прокси.
// Содержит настройки сервера, логгера и клиента upstream API.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Logger   LoggerConfig   `json:"logger"`
	Upstream UpstreamConfig `json:"upstream"`
}

// ServerConfig содержит настройки HTTP-сервера приложения.
type ServerConfig struct {
	Address         string `json:"address"`
	ShutdownTimeout string `json:"shutdown_timeout"`
}

// LoggerConfig содержит настройки системы логирования.
// Пустые File и ErrorFile означают вывод в stdout и stderr соответственно.
type LoggerConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	ErrorFile string `json:"error_file"`
}

// UpstreamConfig содержит параметры обращения к API New York Times:
// ключ, базовый адрес и политику повторных попыток.
type UpstreamConfig struct {
	APIKey         string  `json:"api_key"`
	BaseURL        string  `json:"base_url"`
	RequestTimeout string  `json:"request_timeout"`
	MaxAttempts    int     `json:"max_attempts"`
	BackoffBase    string  `json:"backoff_base"`
	BackoffFactor  float64 `json:"backoff_factor"`
	FanOutLimit    int     `json:"fan_out_limit"`
}

// Timeout возвращает таймаут одной попытки запроса. Вызывать после Validate.
func (u UpstreamConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(u.RequestTimeout)
	return d
}

// Backoff возвращает базовую задержку перед первой повторной попыткой.
func (u UpstreamConfig) Backoff() time.Duration {
	d, _ := time.ParseDuration(u.BackoffBase)
	return d
}

// ShutdownDuration возвращает таймаут graceful shutdown.
func (s ServerConfig) ShutdownDuration() time.Duration {
	d, _ := time.ParseDuration(s.ShutdownTimeout)
	return d
}

// Load загружает конфигурацию: значения по умолчанию, затем JSON-файл
// (если путь задан), затем .env и переменные окружения.
// Возвращает ошибку если файл недоступен или содержит некорректный JSON.
func Load(configPath string) (*Config, error) {
	cfg := New()
	if configPath != "" {
		fileData, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := json.Unmarshal(fileData, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv переопределяет поля конфигурации значениями из окружения.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Upstream.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Upstream.BaseURL = v
	}
	if v, ok := lookup(EnvServerAddress); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logger.Level = v
	}
}

// New создает новый экземпляр Config с значениями по умолчанию.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: "10s",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://api.nytimes.com/svc",
			RequestTimeout: "10s",
			MaxAttempts:    3,
			BackoffBase:    "1s",
			BackoffFactor:  2,
			FanOutLimit:    5,
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream api key is not set (%s)", EnvAPIKey)
	}
	u, err := url.ParseRequestURI(c.Upstream.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid upstream.base_url: %q", c.Upstream.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream.base_url must use http or https: %q", c.Upstream.BaseURL)
	}
	if d, err := time.ParseDuration(c.Upstream.RequestTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid upstream.request_timeout: %q", c.Upstream.RequestTimeout)
	}
	if d, err := time.ParseDuration(c.Upstream.BackoffBase); err != nil || d < 0 {
		return fmt.Errorf("invalid upstream.backoff_base: %q", c.Upstream.BackoffBase)
	}
	if c.Upstream.MaxAttempts < 1 {
		return fmt.Errorf("upstream.max_attempts must be at least 1")
	}
	if c.Upstream.BackoffFactor < 1 {
		return fmt.Errorf("upstream.backoff_factor must be at least 1")
	}
	if c.Upstream.FanOutLimit < 1 {
		return fmt.Errorf("upstream.fan_out_limit must be a positive number")
	}
	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout: %q", c.Server.ShutdownTimeout)
	}
	return nil
}
