package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr            string
	CacheDir        string
	CacheBackend    string // "file" or "sqlite"
	CacheDBPath     string
	AuditDBPath     string
	WindowDays      int
	RefreshInterval time.Duration
	Debug           bool

	NVDAPIKey     string
	AbuseIPDBKey  string
	VulnersAPIKey string
	NewsAPIKey    string
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("THREATWATCH_ADDR", ":8080")
	cfg.CacheDir = getEnv("THREATWATCH_CACHE_DIR", getDefaultDataDir("cache"))
	cfg.CacheBackend = getEnv("THREATWATCH_CACHE_BACKEND", "file")
	cfg.CacheDBPath = getEnv("THREATWATCH_CACHE_DB", getDefaultDataPath("cache.db"))
	cfg.AuditDBPath = getEnv("THREATWATCH_AUDIT_DB", getDefaultDataPath("audit.db"))
	cfg.WindowDays = getEnvInt("THREATWATCH_WINDOW_DAYS", 7)
	cfg.RefreshInterval = getEnvDuration("THREATWATCH_REFRESH", 30*time.Minute)
	cfg.Debug = getEnvBool("THREATWATCH_DEBUG", false)

	cfg.NVDAPIKey = getEnv("NVD_API_KEY", "")
	cfg.AbuseIPDBKey = getEnv("ABUSEIPDB_API_KEY", "")
	cfg.VulnersAPIKey = getEnv("VULNERS_API_KEY", "")
	cfg.NewsAPIKey = getEnv("NEWS_API_KEY", "")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Directory for the file cache backend")
	flag.StringVar(&cfg.CacheBackend, "cache-backend", cfg.CacheBackend, "Cache backend: file or sqlite")
	flag.StringVar(&cfg.CacheDBPath, "cache-db", cfg.CacheDBPath, "Path to SQLite cache database")
	flag.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "Path to SQLite fetch-audit database")
	flag.IntVar(&cfg.WindowDays, "window-days", cfg.WindowDays, "Recent-CVE window in days")
	flag.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "Background enrichment refresh interval")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	flag.Parse()

	if cfg.CacheBackend != "file" && cfg.CacheBackend != "sqlite" {
		log.Printf("Warning: Unknown cache backend %q, falling back to file", cfg.CacheBackend)
		cfg.CacheBackend = "file"
	}
	if cfg.WindowDays < 1 {
		cfg.WindowDays = 7
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDataDir returns a subdirectory of ~/.threatwatch, creating
// it if needed.
func getDefaultDataDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return sub
	}

	dir := filepath.Join(home, ".threatwatch", sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create %s, using current dir: %v", dir, err)
		return sub
	}

	return dir
}

func getDefaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}

	dir := filepath.Join(home, ".threatwatch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return name
	}

	return filepath.Join(dir, name)
}
