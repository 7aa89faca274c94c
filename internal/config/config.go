package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Twilio   TwilioConfig
	OpenAI   OpenAIConfig
	Calendar CalendarConfig
	SendGrid SendGridConfig
	Slack    SlackConfig
	Schedule ScheduleConfig
	Call     CallConfig
	Fallback FallbackBusinessConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicStreamURL is the wss:// endpoint Twilio connects back to for
	// media streams. Must be reachable from the public internet.
	PublicStreamURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// SMSFrom is the number trial-link texts are sent from.
	SMSFrom string
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	Voice       string
	Temperature float64

	DialTimeout     time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
	PingInterval    time.Duration
	PongTimeout     time.Duration
}

type CalendarConfig struct {
	// CredentialsJSON is the Google service account key, raw JSON.
	CredentialsJSON string
	DefaultID       string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type SlackConfig struct {
	BotToken     string
	AlertChannel string
}

type ScheduleConfig struct {
	Timezone         string
	OpenHour         int
	LastBookableHour int
	MorningHour      int
	DaysAhead        int
}

type CallConfig struct {
	GraceWindow     time.Duration
	MaxCallDuration time.Duration
}

// FallbackBusinessConfig answers calls to numbers no business owns, so a
// demo deployment works before any business rows exist. Setting Name
// enables it; the fallback books against the default Google calendar.
type FallbackBusinessConfig struct {
	Name         string
	AgentName    string
	Industry     string
	OwnerEmail   string
	TrialLinkURL string
}

func (c FallbackBusinessConfig) Enabled() bool {
	return c.Name != ""
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicStreamURL = strings.TrimSpace(os.Getenv("PUBLIC_STREAM_URL"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = durationOr("JWT_ACCESS_TTL", 15*time.Minute)

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.SMSFrom = strings.TrimSpace(os.Getenv("TWILIO_SMS_FROM"))

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_REALTIME_MODEL"))
	c.OpenAI.Voice = stringOr("OPENAI_VOICE", "echo")
	c.OpenAI.Temperature = floatOr("OPENAI_TEMPERATURE", 0.8)
	c.OpenAI.DialTimeout = durationOr("OPENAI_DIAL_TIMEOUT", 30*time.Second)
	c.OpenAI.ConnectAttempts = intOr("OPENAI_CONNECT_ATTEMPTS", 4)
	c.OpenAI.ConnectBackoff = durationOr("OPENAI_CONNECT_BACKOFF", 500*time.Millisecond)
	c.OpenAI.PingInterval = durationOr("OPENAI_PING_INTERVAL", 20*time.Second)
	c.OpenAI.PongTimeout = durationOr("OPENAI_PONG_TIMEOUT", 10*time.Second)

	c.Calendar.CredentialsJSON = os.Getenv("GOOGLE_CALENDAR_CREDENTIALS")
	c.Calendar.DefaultID = strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID"))

	c.SendGrid.APIKey = os.Getenv("SENDGRID_API_KEY")
	c.SendGrid.FromEmail = strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL"))
	c.SendGrid.FromName = strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME"))

	c.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	c.Slack.AlertChannel = strings.TrimSpace(os.Getenv("SLACK_ALERT_CHANNEL"))

	c.Schedule.Timezone = stringOr("SCHEDULE_TIMEZONE", "America/Los_Angeles")
	c.Schedule.OpenHour = intOr("SCHEDULE_OPEN_HOUR", 9)
	c.Schedule.LastBookableHour = intOr("SCHEDULE_LAST_BOOKABLE_HOUR", 16)
	c.Schedule.MorningHour = intOr("SCHEDULE_MORNING_HOUR", 9)
	c.Schedule.DaysAhead = intOr("SCHEDULE_DAYS_AHEAD", 7)

	c.Call.GraceWindow = durationOr("CALL_GRACE_WINDOW", 3*time.Second)
	c.Call.MaxCallDuration = durationOr("CALL_MAX_DURATION", time.Hour)

	c.Fallback.Name = strings.TrimSpace(os.Getenv("FALLBACK_BUSINESS_NAME"))
	c.Fallback.AgentName = strings.TrimSpace(os.Getenv("FALLBACK_AGENT_NAME"))
	c.Fallback.Industry = strings.TrimSpace(os.Getenv("FALLBACK_INDUSTRY"))
	c.Fallback.OwnerEmail = strings.TrimSpace(os.Getenv("FALLBACK_OWNER_EMAIL"))
	c.Fallback.TrialLinkURL = strings.TrimSpace(os.Getenv("FALLBACK_TRIAL_LINK"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicStreamURL == "" {
		errs = append(errs, errors.New("PUBLIC_STREAM_URL is required"))
	} else if !strings.HasPrefix(c.App.PublicStreamURL, "wss://") && !strings.HasPrefix(c.App.PublicStreamURL, "ws://") {
		errs = append(errs, fmt.Errorf("PUBLIC_STREAM_URL must be a ws:// or wss:// url, got %q", c.App.PublicStreamURL))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" && c.IsProduction() {
		errs = append(errs, errors.New("DB_SSLMODE is required in production"))
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", c.OpenAI.Temperature))
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULE_TIMEZONE is not a valid IANA zone: %q", c.Schedule.Timezone))
	}
	if c.Schedule.OpenHour < 0 || c.Schedule.OpenHour > 23 {
		errs = append(errs, fmt.Errorf("SCHEDULE_OPEN_HOUR must be 0-23, got %d", c.Schedule.OpenHour))
	}
	if c.Schedule.LastBookableHour < 0 || c.Schedule.LastBookableHour > 23 {
		errs = append(errs, fmt.Errorf("SCHEDULE_LAST_BOOKABLE_HOUR must be 0-23, got %d", c.Schedule.LastBookableHour))
	}
	if c.Schedule.OpenHour > c.Schedule.LastBookableHour {
		errs = append(errs, errors.New("SCHEDULE_OPEN_HOUR must not be after SCHEDULE_LAST_BOOKABLE_HOUR"))
	}
	if c.Schedule.DaysAhead <= 0 {
		errs = append(errs, fmt.Errorf("SCHEDULE_DAYS_AHEAD must be positive, got %d", c.Schedule.DaysAhead))
	}

	if c.Fallback.Enabled() && c.Calendar.DefaultID == "" {
		errs = append(errs, errors.New("GOOGLE_CALENDAR_ID is required when FALLBACK_BUSINESS_NAME is set"))
	}

	if c.Call.GraceWindow < 0 {
		errs = append(errs, errors.New("CALL_GRACE_WINDOW must not be negative"))
	}
	if c.Call.MaxCallDuration <= 0 {
		errs = append(errs, errors.New("CALL_MAX_DURATION must be positive"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	sslMode := c.DB.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		sslMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func intOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatOr(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func stringOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func durationOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
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
