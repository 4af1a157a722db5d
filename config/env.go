package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port   string
	GoEnv  string
	Origin []string

	MongoURI            string
	MongoDatabase       string
	MongoConnectRetries int

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	UploadDir string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	EscalationInterval  time.Duration
	ComplaintDailyLimit int
	RateLimitPrefix     string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getenv("PORT", "5000"),
		GoEnv:               getenv("GO_ENV", "development"),
		Origin:              splitList(getenv("FRONTEND_URL", "http://localhost:5173")),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       getenv("MONGODB_DATABASE", "hostel_grievance"),
		MongoConnectRetries: getenvInt("MONGODB_CONNECT_RETRIES", 5),
		RedisAddress:        getenv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getenvInt("REDIS_DB", 0),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		UploadDir:           getenv("UPLOAD_DIR", "uploads"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getenvInt("SMTP_PORT", 587),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPassword:        os.Getenv("SMTP_PASS"),
		MailFrom:            getenv("MAIL_FROM", "no-reply@hostel.local"),
		EscalationInterval:  getenvDuration("ESCALATION_INTERVAL", time.Hour),
		ComplaintDailyLimit: getenvInt("COMPLAINT_DAILY_LIMIT", 10),
		RateLimitPrefix:     getenv("REDIS_QUEUE_FOR_COMPLAINT_LIMIT", "complaint-limit"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("please define the MONGODB_URI environment variable")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("please define the JWT_SECRET environment variable")
	}
	return cfg, nil
}

// Production reports whether GO_ENV is production.
func (c *Config) Production() bool {
	return c.GoEnv == "production"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
