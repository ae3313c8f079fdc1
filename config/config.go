package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub chat transport configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string
	InboundChannel     string

	// Paystack configuration
	PaystackSecretKey string
	PaystackBaseURL   string
	CallbackURL       string

	// Pricing
	Currency string
	GAPrice  decimal.Decimal
	VIPPrice decimal.Decimal

	// VIP soft cap
	VIPAllotment int

	// Scheduler configuration
	ReminderInterval     time.Duration
	ReminderInitialDelay time.Duration
	DeadlineInterval     time.Duration
	DeadlineCutoff       time.Time

	// Outbound send throttling
	SendThrottle time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "ticketbot"),
		InboundChannel:     getEnv("INBOUND_CHANNEL", "chat-inbound"),

		// Paystack
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		CallbackURL:       getEnv("PAYMENT_CALLBACK_URL", ""),

		// Pricing
		Currency: getEnv("CURRENCY", "GHS"),
		GAPrice:  getEnvAsDecimal("GA_PRICE", "918.75"),
		VIPPrice: getEnvAsDecimal("VIP_PRICE", "1531.25"),

		// VIP soft cap
		VIPAllotment: getEnvAsInt("VIP_ALLOTMENT", 20),

		// Schedulers
		ReminderInterval:     getEnvAsDuration("REMINDER_INTERVAL", "6h"),
		ReminderInitialDelay: getEnvAsDuration("REMINDER_INITIAL_DELAY", "10s"),
		DeadlineInterval:     getEnvAsDuration("DEADLINE_INTERVAL", "24h"),
		DeadlineCutoff:       getEnvAsTime("DEADLINE_CUTOFF", ""),

		// Throttling
		SendThrottle: getEnvAsDuration("SEND_THROTTLE", "500ms"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	value, _ := decimal.NewFromString(defaultValue)
	return value
}

// getEnvAsTime parses an RFC 3339 timestamp. A missing or malformed
// value yields the zero time, which disables the deadline sweep.
func getEnvAsTime(key string, defaultValue string) time.Time {
	valueStr := getEnv(key, defaultValue)
	if t, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return t
	}
	return time.Time{}
}
