package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	AppVersion  string
	APISecret   string // Shared single-user secret; empty disables bearer auth

	// Page side
	APIURL        string
	ProxyURL      string
	LocalStoreURL string

	// Proxy side
	ProxyPort      string
	UpstreamAPIURL string
	AppOrigin      string
	CacheStoreURL  string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Defaults are the values used when neither flags, environment nor .env set a key.
var Defaults = map[string]any{
	"PORT":             "8080",
	"DATABASE_URL":     "file:db.sqlite",
	"APP_ENV":          "local",
	"APP_VERSION":      "1.0.1",
	"API_SECRET":       "",
	"API_URL":          "http://localhost:8080/api/mylinks.php",
	"PROXY_URL":        "",
	"LOCAL_STORE_URL":  "file:linkvault-local.sqlite",
	"PROXY_PORT":       "8090",
	"UPSTREAM_API_URL": "http://localhost:8080/api/mylinks.php",
	"APP_ORIGIN":       "http://localhost:5173",
	"CACHE_STORE_URL":  "file:linkvault-cache.sqlite",
	"RATE_LIMIT_RPS":   10.0,
	"RATE_LIMIT_BURST": 50,
}

// Load reads .env and the environment.
func Load() *Config {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through v, so callers can bind flags first.
func LoadWith(v *viper.Viper) *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Config{
		Port:           v.GetString("PORT"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		AppEnv:         v.GetString("APP_ENV"),
		AppVersion:     v.GetString("APP_VERSION"),
		APISecret:      v.GetString("API_SECRET"),
		APIURL:         v.GetString("API_URL"),
		ProxyURL:       v.GetString("PROXY_URL"),
		LocalStoreURL:  v.GetString("LOCAL_STORE_URL"),
		ProxyPort:      v.GetString("PROXY_PORT"),
		UpstreamAPIURL: v.GetString("UPSTREAM_API_URL"),
		AppOrigin:      v.GetString("APP_ORIGIN"),
		CacheStoreURL:  v.GetString("CACHE_STORE_URL"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

// CacheVersion is the tag suffixed to every locally persisted key.
func (c *Config) CacheVersion() string {
	return "v" + c.AppVersion
}
