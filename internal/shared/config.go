package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheRedis  = "redis"
	CacheMemory = "memory"

	SourceMySQL = "mysql"
	SourceCMS   = "cms"
	SourceSeed  = "seed"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string

	CacheBackend string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	CacheTTL     time.Duration

	HostelSource string
	CMSBaseURL   string
	CMSToken     string
	CMSRPS       int

	Workers  int
	SeedFile string

	FetchTimeout           time.Duration
	ListingRefreshInterval time.Duration

	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	TrustProxy     bool // take the client address from X-Forwarded-For / X-Real-IP
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "prod")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9100")
	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/hostels?parseTime=true&charset=utf8mb4,utf8&loc=UTC")
	v.SetDefault("CACHE_BACKEND", CacheRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("HOSTEL_SOURCE", SourceMySQL)
	v.SetDefault("CMS_BASE_URL", "")
	v.SetDefault("CMS_TOKEN", "")
	v.SetDefault("CMS_RPS", 5)
	v.SetDefault("INGEST_WORKERS", 8)
	v.SetDefault("INGEST_SEED_FILE", "")
	v.SetDefault("FETCH_TIMEOUT", "20s")
	v.SetDefault("LISTING_REFRESH_INTERVAL", "5m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("TRUST_PROXY", false)
}

// Load reads .env (if any), the environment and an optional YAML file named
// by CONFIG_FILE. Environment wins over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if f := v.GetString("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", f, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		AppEnv:      v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		MySQLDSN:    v.GetString("MYSQL_DSN"),

		CacheBackend: strings.ToLower(v.GetString("CACHE_BACKEND")),
		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisPass:    v.GetString("REDIS_PASSWORD"),
		RedisDB:      v.GetInt("REDIS_DB"),
		CacheTTL:     v.GetDuration("CACHE_TTL"),

		HostelSource: strings.ToLower(v.GetString("HOSTEL_SOURCE")),
		CMSBaseURL:   v.GetString("CMS_BASE_URL"),
		CMSToken:     v.GetString("CMS_TOKEN"),
		CMSRPS:       v.GetInt("CMS_RPS"),

		Workers:  v.GetInt("INGEST_WORKERS"),
		SeedFile: v.GetString("INGEST_SEED_FILE"),

		FetchTimeout:           v.GetDuration("FETCH_TIMEOUT"),
		ListingRefreshInterval: v.GetDuration("LISTING_REFRESH_INTERVAL"),

		JWTSecret:      v.GetString("JWT_SECRET"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		TrustProxy:     v.GetBool("TRUST_PROXY"),
	}
	return c, c.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.CacheBackend {
	case CacheRedis, CacheMemory:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheRedis, CacheMemory, c.CacheBackend))
	}
	switch c.HostelSource {
	case SourceMySQL, SourceCMS, SourceSeed:
	default:
		errs = append(errs, fmt.Errorf("HOSTEL_SOURCE must be mysql, cms or seed, got %q", c.HostelSource))
	}
	if c.HostelSource == SourceCMS && c.CMSBaseURL == "" {
		errs = append(errs, errors.New("CMS_BASE_URL is required when HOSTEL_SOURCE=cms"))
	}
	if c.HostelSource == SourceSeed && c.SeedFile == "" {
		errs = append(errs, errors.New("INGEST_SEED_FILE is required when HOSTEL_SOURCE=seed"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("INGEST_WORKERS must be at least 1"))
	}
	if c.CacheTTL < 0 || c.FetchTimeout < 0 || c.ListingRefreshInterval < 0 || c.RequestTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}
