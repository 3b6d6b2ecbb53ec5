package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	APIBaseURL        string
	StateDir          string
	StoreKind         string
	MongoURI          string
	DBName            string
	SessionSecret     string
	AWSRegion         string
	AWSBucketName     string
	PollInterval      time.Duration
	AnalysisTimeout   time.Duration
	TryOnTimeout      time.Duration
	RefreshTimeout    time.Duration
	HTTPTimeout       time.Duration
	RequestsPerSecond float64

	// EnvFileFound reports whether LoadConfig read a .env file.
	EnvFileFound bool
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	err := godotenv.Load()
	EnvFileFound = err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring unreadable .env file: %v", err)
	}

	APIBaseURL = getEnv("FITLY_API_URL", "http://localhost:8080")

	StateDir = os.Getenv("FITLY_STATE_DIR")
	if StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		StateDir = filepath.Join(home, ".fitly")
	}

	StoreKind = getEnv("FITLY_STORE", "file")
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017/")
	DBName = getEnv("FITLY_DB_NAME", "fitly")
	SessionSecret = os.Getenv("FITLY_SESSION_SECRET")

	AWSRegion = getEnv("AWS_REGION", "ap-south-1")
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")

	PollInterval = getDuration("FITLY_POLL_INTERVAL", 500*time.Millisecond)
	AnalysisTimeout = getDuration("FITLY_ANALYSIS_TIMEOUT", 60*time.Second)
	TryOnTimeout = getDuration("FITLY_TRYON_TIMEOUT", 5*time.Minute)
	RefreshTimeout = getDuration("FITLY_REFRESH_TIMEOUT", 15*time.Second)
	HTTPTimeout = getDuration("FITLY_HTTP_TIMEOUT", 30*time.Second)

	RequestsPerSecond = 0
	if v := os.Getenv("FITLY_REQUESTS_PER_SECOND"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps >= 0 {
			RequestsPerSecond = rps
		} else {
			log.Printf("Ignoring invalid FITLY_REQUESTS_PER_SECOND %q", v)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go duration strings ("750ms") or plain milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("Ignoring invalid %s %q, using %v", key, v, fallback)
	return fallback
}
