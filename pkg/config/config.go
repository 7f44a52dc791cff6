package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Cart          CartConfig
	Mail          MailConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LAPZONE_APP_ENV" required:"true"`
	Port         string `envconfig:"LAPZONE_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"LAPZONE_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"LAPZONE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LAPZONE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LAPZONE_DB_DSN"`
	Driver string `envconfig:"LAPZONE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LAPZONE_DB_HOST"`
	LegacyPort     int    `envconfig:"LAPZONE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LAPZONE_DB_USER"`
	LegacyPassword string `envconfig:"LAPZONE_DB_PASSWORD"`
	LegacyName     string `envconfig:"LAPZONE_DB_NAME"`
	LegacySSLMode  string `envconfig:"LAPZONE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LAPZONE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LAPZONE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LAPZONE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LAPZONE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LAPZONE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LAPZONE_REDIS_ADDR"`
	Password     string        `envconfig:"LAPZONE_REDIS_PASSWORD"`
	DB           int           `envconfig:"LAPZONE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LAPZONE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LAPZONE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LAPZONE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LAPZONE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LAPZONE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LAPZONE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LAPZONE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LAPZONE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LAPZONE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LAPZONE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LAPZONE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LAPZONE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LAPZONE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LAPZONE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LAPZONE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LAPZONE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LAPZONE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// CartConfig governs the Redis-backed cart session slots.
type CartConfig struct {
	SessionCookie string        `envconfig:"LAPZONE_CART_SESSION_COOKIE" default:"lz_session"`
	SessionTTL    time.Duration `envconfig:"LAPZONE_CART_SESSION_TTL" default:"336h"`
}

type MailConfig struct {
	APIKey      string `envconfig:"LAPZONE_MAIL_API_KEY"`
	APIBaseURL  string `envconfig:"LAPZONE_MAIL_API_BASE_URL" default:"https://api.sendgrid.com"`
	DefaultFrom string `envconfig:"LAPZONE_MAIL_FROM_EMAIL" default:"orders@lapzone.store"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LAPZONE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
