package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LLMAPIKeyMock selects the deterministic mock LLM client.
const LLMAPIKeyMock = "mock"

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	IngestToken string `env:"INGEST_TOKEN"`

	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// LLM
	LLMAPIKey       string        `env:"LLM_API_KEY,required"`
	LLMBaseURL      string        `env:"LLM_BASE_URL"`
	LLMModel        string        `env:"LLM_MODEL" envDefault:"gpt-4o"`
	LLMRateLimitRPS float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"2"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Twilio SMS
	TwilioAccountSID string  `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string  `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string  `env:"TWILIO_FROM_NUMBER"`
	TwilioBaseURL    string  `env:"TWILIO_BASE_URL" envDefault:"https://api.twilio.com"`
	TwilioRateRPS    float64 `env:"TWILIO_RATE_LIMIT_RPS" envDefault:"1"`

	// ElevenLabs outbound voice calls
	ElevenLabsAPIKey        string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsAgentID       string `env:"ELEVENLABS_AGENT_ID"`
	ElevenLabsPhoneNumberID string `env:"ELEVENLABS_PHONE_NUMBER_ID"`
	ElevenLabsBaseURL       string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`

	// Admin alerts over a Telegram bot
	AdminBotToken string `env:"ADMIN_BOT_TOKEN"`
	AdminChatID   int64  `env:"ADMIN_CHAT_ID"`

	// Google Calendar OAuth client
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// Triage worker
	WorkerPollInterval    time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	WorkerBatchSize       int           `env:"WORKER_BATCH_SIZE" envDefault:"20"`
	WorkerStaleClaimAfter time.Duration `env:"WORKER_STALE_CLAIM_AFTER" envDefault:"30m"`

	// Bridge bot user IDs; empty falls back to the "@{service}bot" convention
	WhatsAppBridgeBot string `env:"WHATSAPP_BRIDGE_BOT"`
	TelegramBridgeBot string `env:"TELEGRAM_BRIDGE_BOT"`
	SignalBridgeBot   string `env:"SIGNAL_BRIDGE_BOT"`

	// Suppression filter
	SuppressionStaleAfter        time.Duration `env:"SUPPRESSION_STALE_AFTER" envDefault:"30m"`
	SuppressionShortWait         time.Duration `env:"SUPPRESSION_SHORT_WAIT" envDefault:"2m"`
	SuppressionLongWait          time.Duration `env:"SUPPRESSION_LONG_WAIT" envDefault:"10m"`
	SuppressionActivityThreshold time.Duration `env:"SUPPRESSION_ACTIVITY_THRESHOLD" envDefault:"5m"`
	SuppressionTimelineLimit     int           `env:"SUPPRESSION_TIMELINE_LIMIT" envDefault:"100"`

	CriticalCooldown time.Duration `env:"CRITICAL_COOLDOWN" envDefault:"10m"`

	// Digest scheduler
	DigestCron            string `env:"DIGEST_CRON" envDefault:"0 * * * *"`
	DigestConcurrency     int    `env:"DIGEST_CONCURRENCY" envDefault:"8"`
	LeaderElectionEnabled bool   `env:"LEADER_ELECTION_ENABLED" envDefault:"true"`

	// Credit costs per notification kind
	NotiMsgCost  float64 `env:"NOTI_MSG_COST" envDefault:"0.075"`
	NotiCallCost float64 `env:"NOTI_CALL_COST" envDefault:"0.15"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// applyAliases accepts the legacy variable names still used by older deployments.
func applyAliases(cfg *Config) {
	if !hasEnv("ELEVENLABS_AGENT_ID") {
		setStringFromEnv("AGENT_ID", &cfg.ElevenLabsAgentID)
	}

	if !hasEnv("TWILIO_FROM_NUMBER") {
		setStringFromEnv("TWILIO_PHONE_NUMBER", &cfg.TwilioFromNumber)
	}
}

// SMSEnabled reports whether Twilio credentials are configured.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// VoiceEnabled reports whether outbound voice calls are configured.
func (c *Config) VoiceEnabled() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsAgentID != ""
}

// AdminAlertsEnabled reports whether admin alerts can be delivered.
func (c *Config) AdminAlertsEnabled() bool {
	return c.AdminBotToken != "" && c.AdminChatID != 0
}

// CalendarEnabled reports whether the Google OAuth client is configured.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// BridgeBots maps each bridged service to its configured bot user ID.
func (c *Config) BridgeBots() map[string]string {
	return map[string]string{
		"whatsapp": c.WhatsAppBridgeBot,
		"telegram": c.TelegramBridgeBot,
		"signal":   c.SignalBridgeBot,
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
