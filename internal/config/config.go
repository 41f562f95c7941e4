package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values come from env (optionally seeded from a .env file).
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	Vapi  VapiConfig
	Calls CallsConfig
	Store StoreConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
}

type AppConfig struct {
	Env     string
	Port    int
	Version string

	// Timezone is used for calendar-day truncation in the dashboard.
	Timezone string
	Location *time.Location

	// StaticDir optionally overrides the embedded HTML pages.
	StaticDir string
}

// VapiConfig configures the external voice-AI calling API.
// APIKey never leaves the server.
type VapiConfig struct {
	APIKey        string
	BaseURL       string
	AssistantID   string
	PhoneNumberID string
	WebhookSecret string

	// HTTPTimeout of 0 means no client timeout.
	HTTPTimeout time.Duration

	ModelProvider string
	Model         string
	VoiceProvider string
	VoiceID       string
}

type CallsConfig struct {
	// RefreshInterval of 0 disables background refresh.
	RefreshInterval time.Duration
	PollInterval    time.Duration
}

type StoreConfig struct {
	// Backend accepts: memory, postgres, redis
	Backend string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig enables bearer auth on the JSON API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

const (
	defaultVapiBaseURL = "https://api.vapi.ai"
	defaultVersion     = "1.0.0"
)

// LoadDotEnv loads the given env files if they exist. Existing env vars win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := optionalInt("APP_PORT", 3000)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.Version = strings.TrimSpace(os.Getenv("APP_VERSION"))
	c.App.Timezone = strings.TrimSpace(os.Getenv("APP_TIMEZONE"))
	c.App.StaticDir = strings.TrimSpace(os.Getenv("STATIC_DIR"))

	c.Vapi.APIKey = strings.TrimSpace(os.Getenv("VAPI_API_KEY"))
	c.Vapi.BaseURL = strings.TrimSpace(os.Getenv("VAPI_BASE_URL"))
	c.Vapi.AssistantID = strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID"))
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID"))
	c.Vapi.WebhookSecret = os.Getenv("VAPI_WEBHOOK_SECRET")
	c.Vapi.ModelProvider = strings.TrimSpace(os.Getenv("VAPI_MODEL_PROVIDER"))
	c.Vapi.Model = strings.TrimSpace(os.Getenv("VAPI_MODEL"))
	c.Vapi.VoiceProvider = strings.TrimSpace(os.Getenv("VAPI_VOICE_PROVIDER"))
	c.Vapi.VoiceID = strings.TrimSpace(os.Getenv("VAPI_VOICE_ID"))
	{
		d, err := optionalDuration("VAPI_HTTP_TIMEOUT", 0)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Vapi.HTTPTimeout = d
	}

	{
		d, err := optionalDuration("CALLS_REFRESH_INTERVAL", 30*time.Second)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Calls.RefreshInterval = d
	}
	{
		d, err := optionalDuration("CALL_POLL_INTERVAL", 2*time.Second)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Calls.PollInterval = d
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := optionalInt("DB_PORT", 5432)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT", 6379)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("AUTH_JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE"))
	{
		d, err := optionalDuration("AUTH_ACCESS_TTL", 0)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Auth.AccessTokenTTL = d
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	}
	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.Version == "" {
		c.App.Version = defaultVersion
	}
	if c.App.Timezone == "" {
		c.App.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.App.Timezone)
		if err != nil {
			errs = append(errs, fmt.Errorf("APP_TIMEZONE is not a valid IANA zone, got %q", c.App.Timezone))
		} else {
			c.App.Location = loc
		}
	}

	if c.Vapi.BaseURL == "" {
		c.Vapi.BaseURL = defaultVapiBaseURL
	}
	c.Vapi.BaseURL = strings.TrimRight(c.Vapi.BaseURL, "/")
	if !strings.HasPrefix(c.Vapi.BaseURL, "http://") && !strings.HasPrefix(c.Vapi.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("VAPI_BASE_URL must be an http(s) URL, got %q", c.Vapi.BaseURL))
	}
	if c.Vapi.HTTPTimeout < 0 {
		errs = append(errs, errors.New("VAPI_HTTP_TIMEOUT must not be negative"))
	}
	if c.Vapi.ModelProvider == "" {
		c.Vapi.ModelProvider = "openai"
	}
	if c.Vapi.Model == "" {
		c.Vapi.Model = "gpt-3.5-turbo"
	}
	if c.Vapi.VoiceProvider == "" {
		c.Vapi.VoiceProvider = "11labs"
	}
	if c.Vapi.VoiceID == "" {
		c.Vapi.VoiceID = "paula"
	}

	if c.Calls.RefreshInterval < 0 {
		errs = append(errs, errors.New("CALLS_REFRESH_INTERVAL must not be negative"))
	}
	if c.Calls.PollInterval <= 0 {
		c.Calls.PollInterval = 2 * time.Second
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required for the postgres store"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required for the postgres store"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required for the postgres store"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	case "redis":
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis store"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of memory, postgres, redis, got %q", c.Store.Backend))
	}

	if c.AuthEnabled() {
		if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 bytes in production"))
		}
		if c.Auth.AccessTokenTTL <= 0 {
			c.Auth.AccessTokenTTL = 12 * time.Hour
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DemoMode reports whether real calls are disabled because the provider
// is not configured.
func (c Config) DemoMode() bool {
	return c.Vapi.APIKey == "" || c.Vapi.PhoneNumberID == ""
}

func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optionalInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s, got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
