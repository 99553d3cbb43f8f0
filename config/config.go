package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Allowed browser origins; empty allows any origin without credentials.
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Shop staff authentication.
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	ShopUsername     string `mapstructure:"SHOP_USERNAME"`
	ShopPasswordHash string `mapstructure:"SHOP_PASSWORD_HASH"`

	// Customer session cookie keys (base64).
	CookieHashKey  string `mapstructure:"COOKIE_HASH_KEY"`
	CookieBlockKey string `mapstructure:"COOKIE_BLOCK_KEY"`

	// Flat files.
	ScheduleFile  string `mapstructure:"SCHEDULE_FILE"`
	BookingFile   string `mapstructure:"BOOKING_FILE"`
	FeedbackFile  string `mapstructure:"FEEDBACK_FILE"`
	FaultCodeFile string `mapstructure:"FAULT_CODE_FILE"`

	// Pricing.
	LaborRate float64 `mapstructure:"LABOR_RATE"`

	// Ledger backend: "csv" or "mongo".
	LedgerBackend string `mapstructure:"LEDGER_BACKEND"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DatabaseName  string `mapstructure:"DATABASE_NAME"`

	// Session store: "memory" or "redis".
	SessionStore string        `mapstructure:"SESSION_STORE"`
	SessionTTL   time.Duration `mapstructure:"SESSION_TTL"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`
	RemindersEnabled     bool   `mapstructure:"REMINDERS_ENABLED"`

	// Diagnosis provider.
	GeminiAPIKey     string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel      string        `mapstructure:"GEMINI_MODEL"`
	DiagnosisTimeout time.Duration `mapstructure:"DIAGNOSIS_TIMEOUT"`

	// Outgoing mail.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// Booking events.
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("CORS_ORIGINS", []string{})
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SHOP_USERNAME", "shop")
	v.SetDefault("SHOP_PASSWORD_HASH", "")
	v.SetDefault("COOKIE_HASH_KEY", "")
	v.SetDefault("COOKIE_BLOCK_KEY", "")
	v.SetDefault("SCHEDULE_FILE", "Weekly Shop Schedule.xlsx")
	v.SetDefault("BOOKING_FILE", "bookings.csv")
	v.SetDefault("FEEDBACK_FILE", "feedback.csv")
	v.SetDefault("FAULT_CODE_FILE", "B123214_SAE_P-Code_List.pdf")
	v.SetDefault("LABOR_RATE", 100.0)
	v.SetDefault("LEDGER_BACKEND", "csv")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "autoshop")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	v.SetDefault("REMINDERS_ENABLED", false)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	v.SetDefault("DIAGNOSIS_TIMEOUT", 30*time.Second)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "bookings@autoshop.local")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "autoshop.events")
}

// Load reads configuration into a fresh Config using the given viper instance.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
