package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL       = "/api"
	DefaultTitlePrefix  = "FileShare - "
	DefaultPageTitle    = "File Sharing App"
	DefaultMaxUpload    = 300 << 20
	DefaultQRSize       = 256
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	EnvAPIURL           = "FILESHARE_API_URL"
	EnvAPIOrigin        = "FILESHARE_API_ORIGIN"
	EnvPort             = "FILESHARE_PORT"
	EnvLogLevel         = "FILESHARE_LOG_LEVEL"
	EnvPublicURL        = "FILESHARE_PUBLIC_URL"
	EnvProxyTarget      = "FILESHARE_PROXY_TARGET"
	EnvAllowOrigins     = "FILESHARE_ALLOW_ORIGINS"
	logFormatJSON       = "json"
	logFormatText       = "text"
	originSchemeHTTP    = "http"
	originSchemeHTTPS   = "https"
	envListSeparator    = ","
	relativeURLRootPath = "/"
)

type ServerConfig struct {
	Port            int      `yaml:"port"`
	BodyLimit       string   `yaml:"body_limit"`
	AllowOrigins    []string `yaml:"allow_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

type APIConfig struct {
	// URL базовый адрес API. Относительный адрес дополняется Origin.
	URL         string `yaml:"url"`
	Origin      string `yaml:"origin"`
	ProxyTarget string `yaml:"proxy_target"`
}

type UIConfig struct {
	TitlePrefix  string `yaml:"title_prefix"`
	DefaultTitle string `yaml:"default_title"`
	PublicURL    string `yaml:"public_url"`
	QRSize       int    `yaml:"qr_size"`
}

type UploadConfig struct {
	MaxSize             int64    `yaml:"max_size"`
	ForbiddenExtensions []string `yaml:"forbidden_extensions"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Messages struct {
	CannotListFiles    string `yaml:"cannot_list_files"`
	CannotLoadFile     string `yaml:"cannot_load_file"`
	CannotDelete       string `yaml:"cannot_delete"`
	CannotUpload       string `yaml:"cannot_upload"`
	ForbiddenFile      string `yaml:"forbidden_file"`
	FileTooLarge       string `yaml:"file_too_large"`
	InvalidID          string `yaml:"invalid_id"`
	NotFound           string `yaml:"not_found"`
	BackendUnavailable string `yaml:"backend_unavailable"`
	RenderError        string `yaml:"render_error"`
	InternalError      string `yaml:"internal_error"`
}

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	API      APIConfig     `yaml:"api"`
	UI       UIConfig      `yaml:"ui"`
	Upload   UploadConfig  `yaml:"upload"`
	Logging  LoggingConfig `yaml:"logging"`
	Messages Messages      `yaml:"messages"`
}

// APIBaseURL возвращает абсолютный адрес API без завершающего слэша.
func (c *Config) APIBaseURL() string {
	base := strings.TrimRight(c.API.URL, relativeURLRootPath)
	if strings.HasPrefix(base, originSchemeHTTP) {
		return base
	}
	return strings.TrimRight(c.API.Origin, relativeURLRootPath) + base
}

// APIPublicURL адрес API для браузера: api.url как есть, относительный идёт через прокси.
func (c *Config) APIPublicURL() string {
	return strings.TrimRight(c.API.URL, relativeURLRootPath)
}

func LoadConfig(filename string) *Config {
	cfg, err := LoadConfigWithError(filename)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadEnv подгружает .env файлы в окружение процесса.
// отсутствующий файл не ошибка, в контейнере переменные приходят снаружи.
func LoadEnv(filenames ...string) error {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", name, err)
		}
	}
	return nil
}

func LoadConfigWithError(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	if envErr := applyEnvOverrides(&cfg); envErr != nil {
		return nil, envErr
	}
	applyDefaults(&cfg)

	if validationErr := validateConfig(&cfg); validationErr != nil {
		return nil, validationErr
	}

	return &cfg, nil
}

// applyEnvOverrides переменные окружения важнее файла, как VITE_API_URL во фронте.
func applyEnvOverrides(cfg *Config) error {
	overrides := map[string]*string{
		EnvAPIURL:      &cfg.API.URL,
		EnvAPIOrigin:   &cfg.API.Origin,
		EnvLogLevel:    &cfg.Logging.Level,
		EnvPublicURL:   &cfg.UI.PublicURL,
		EnvProxyTarget: &cfg.API.ProxyTarget,
	}
	for key, target := range overrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*target = value
		}
	}

	if value, ok := os.LookupEnv(EnvPort); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return validationError{field: EnvPort, msg: fmt.Sprintf("must be a number, got %q", value)}
		}
		cfg.Server.Port = port
	}

	if value, ok := os.LookupEnv(EnvAllowOrigins); ok {
		cfg.Server.AllowOrigins = splitList(value)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.URL == "" {
		cfg.API.URL = DefaultAPIURL
	}
	if cfg.UI.TitlePrefix == "" {
		cfg.UI.TitlePrefix = DefaultTitlePrefix
	}
	if cfg.UI.DefaultTitle == "" {
		cfg.UI.DefaultTitle = DefaultPageTitle
	}
	if cfg.UI.QRSize == 0 {
		cfg.UI.QRSize = DefaultQRSize
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = DefaultMaxUpload
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	for i, ext := range cfg.Upload.ForbiddenExtensions {
		cfg.Upload.ForbiddenExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
}

type validationError struct {
	field string
	msg   string
}

func (e validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

func validateConfig(cfg *Config) error {
	type validator func() error

	validators := []validator{
		func() error { return validatePort(cfg.Server.Port) },
		func() error { return validateRequiredString("api.url", cfg.API.URL) },
		func() error { return validateAPIURL(cfg.API) },
		func() error { return validateOptionalURL("api.proxy_target", cfg.API.ProxyTarget) },
		func() error { return validateOptionalURL("ui.public_url", cfg.UI.PublicURL) },
		func() error { return validatePositiveInt64("upload.max_size", cfg.Upload.MaxSize) },
		func() error { return validatePositiveInt("ui.qr_size", cfg.UI.QRSize) },
		func() error { return validateLogFormat(cfg.Logging.Format) },
	}

	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	return nil
}

func validateRequiredString(field, value string) error {
	if value == "" {
		return validationError{field: field, msg: "is required"}
	}
	return nil
}

func validatePositiveInt(field string, value int) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePositiveInt64(field string, value int64) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return validationError{
			field: "server.port",
			msg:   fmt.Sprintf("must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}

// validateAPIURL относительный адрес без origin некуда отправить с сервера.
func validateAPIURL(api APIConfig) error {
	if strings.HasPrefix(api.URL, originSchemeHTTP) {
		return validateOptionalURL("api.url", api.URL)
	}
	if !strings.HasPrefix(api.URL, relativeURLRootPath) {
		return validationError{field: "api.url", msg: "must be absolute or start with /"}
	}
	if err := validateRequiredString("api.origin", api.Origin); err != nil {
		return validationError{field: "api.origin", msg: "is required when api.url is relative"}
	}
	return validateOptionalURL("api.origin", api.Origin)
}

func validateOptionalURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return validationError{field: field, msg: err.Error()}
	}
	if u.Scheme != originSchemeHTTP && u.Scheme != originSchemeHTTPS {
		return validationError{field: field, msg: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return validationError{field: field, msg: "host is required"}
	}
	return nil
}

func validateLogFormat(format string) error {
	switch format {
	case logFormatJSON, logFormatText:
		return nil
	default:
		return validationError{field: "logging.format", msg: fmt.Sprintf("must be %q or %q", logFormatText, logFormatJSON)}
	}
}

// splitList разбирает списки вида "a, b,c" из переменных окружения.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, envListSeparator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
