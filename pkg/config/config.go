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
	Shares        SharesConfig
	SiteConfig    SiteConfigConfig
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
	Env          string `envconfig:"WISHERR_APP_ENV" required:"true"`
	Port         string `envconfig:"WISHERR_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"WISHERR_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"WISHERR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WISHERR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"WISHERR_DB_DSN"`
	Driver string `envconfig:"WISHERR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WISHERR_DB_HOST"`
	LegacyPort     int    `envconfig:"WISHERR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WISHERR_DB_USER"`
	LegacyPassword string `envconfig:"WISHERR_DB_PASSWORD"`
	LegacyName     string `envconfig:"WISHERR_DB_NAME"`
	LegacySSLMode  string `envconfig:"WISHERR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WISHERR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WISHERR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WISHERR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHERR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WISHERR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WISHERR_REDIS_ADDR"`
	Password     string        `envconfig:"WISHERR_REDIS_PASSWORD"`
	DB           int           `envconfig:"WISHERR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WISHERR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WISHERR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WISHERR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WISHERR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WISHERR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"WISHERR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"WISHERR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"WISHERR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"WISHERR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WISHERR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WISHERR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WISHERR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WISHERR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WISHERR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"WISHERR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"WISHERR_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"WISHERR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"WISHERR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"WISHERR_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"WISHERR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ShareAccessWindow     time.Duration `envconfig:"WISHERR_AUTH_RATE_LIMIT_SHARE_WINDOW" default:"1m"`
	ShareAccessIPLimit    int           `envconfig:"WISHERR_AUTH_RATE_LIMIT_SHARE_IP_LIMIT" default:"30"`
}

type SharesConfig struct {
	TokenBytes        int `envconfig:"WISHERR_SHARE_TOKEN_BYTES" default:"32"`
	MinPasswordLength int `envconfig:"WISHERR_SHARE_MIN_PASSWORD_LENGTH" default:"4"`
}

type SiteConfigConfig struct {
	CacheTTL time.Duration `envconfig:"WISHERR_SITE_CONFIG_CACHE_TTL" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WISHERR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WISHERR_AUTO_MIGRATE" default:"false"`
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
