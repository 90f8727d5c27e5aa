package config // package config loads gateway configuration from the environment

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; a .env file in the working directory is loaded
// first when present.
type Config struct {
	ServiceName string // name used as the root logger namespace
	Env         string // application environment (dev, test, prod)
	Port        string // HTTP port the gateway listens on
	LogLevel    string // debug, info, warn or error

	JWTSecret     string        // secret used to sign gateway session tokens
	SessionTTL    time.Duration // lifetime of a gateway session token
	ClientTimeout time.Duration // per-request timeout for backend calls

	Backend BackendURLs

	StorageDriver string // memory, redis or mysql
	StoragePrefix string // key namespace inside redis/mysql
	DBUser        string
	DBPass        string
	DBHost        string
	DBPort        string
	DBName        string

	RabbitURL string // empty disables the event queue and notifications go direct

	ModerationMode string // gemini, allow or deny
	GeminiBaseURL  string
	GeminiModel    string
	GeminiAPIKey   string

	ReconcileInterval time.Duration // zero disables periodic seat reconciliation
}

// BackendURLs are the base URLs of the backend services, without trailing slash.
type BackendURLs struct {
	Auth          string
	Rides         string
	Bookings      string
	Reviews       string
	Reports       string
	Notifications string
}

// Load reads configuration values from the environment and returns a Config.
// JWT_SECRET is required; everything else has a development default.
func Load() Config {
	_ = godotenv.Load(".env")

	api := strings.TrimRight(envStr("API_URL", "http://localhost"), "/")
	return Config{
		ServiceName: envStr("SERVICE_NAME", "carpool-gateway"),
		Env:         envStr("APP_ENV", "dev"),
		Port:        envStr("APP_PORT", "8080"),
		LogLevel:    envStr("LOG_LEVEL", "debug"),

		JWTSecret:     must("JWT_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 24*time.Hour),
		ClientTimeout: envDur("BACKEND_TIMEOUT", 10*time.Second),

		Backend: BackendURLs{
			Auth:          trim(envStr("AUTH_SERVICE_URL", api+":8081/api/auth")),
			Rides:         trim(envStr("RIDE_SERVICE_URL", api+":8085/api/rides")),
			Bookings:      trim(envStr("BOOKING_SERVICE_URL", api+":8082/api/bookings")),
			Reviews:       trim(envStr("REVIEW_SERVICE_URL", api+":8086/api/reviews")),
			Reports:       trim(envStr("REPORT_SERVICE_URL", api+":8087/api/reports")),
			Notifications: trim(envStr("NOTIFICATION_SERVICE_URL", api+":8088/api/notifications")),
		},

		StorageDriver: strings.ToLower(envStr("STORAGE_DRIVER", "memory")),
		StoragePrefix: envStr("STORAGE_PREFIX", "carpool"),
		DBUser:        envStr("DB_USER", "carpool"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        envStr("DB_HOST", "localhost"),
		DBPort:        envStr("DB_PORT", "3306"),
		DBName:        envStr("DB_NAME", "carpool"),

		RabbitURL: rabbitURL(),

		ModerationMode: strings.ToLower(envStr("MODERATION_MODE", "gemini")),
		GeminiBaseURL:  trim(envStr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiModel:    envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),

		ReconcileInterval: envDur("RECONCILE_INTERVAL", 2*time.Minute),
	}
}

// rabbitURL honours both RABBITMQ_URL and AMQP_URL; there is no default so
// that a missing broker keeps the gateway on direct notifications.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func trim(s string) string { return strings.TrimRight(s, "/") }

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return d
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := cast.ToDurationE(v)
	if err != nil {
		return d
	}
	return dur
}
