package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Modos ante caída del cache durante un gate (revocación / rate limit).
const (
	FailClosed = "closed"
	FailOpen   = "open"
)

// MinSecretLen es el largo mínimo del secreto HS256.
const MinSecretLen = 32

// Duration acepta "15m", "900s", etc. en YAML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", n.Line, s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Limit es un par (requests, ventana) de una política de rate limit.
type Limit struct {
	Limit  int64    `yaml:"limit"`
	Window Duration `yaml:"window"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr           string   `yaml:"addr"`
		ReadTimeout    Duration `yaml:"read_timeout"`
		WriteTimeout   Duration `yaml:"write_timeout"`
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver          string   `yaml:"driver"`
		DSN             string   `yaml:"dsn"`
		MaxOpenConns    int      `yaml:"max_open_conns"`
		MaxIdleConns    int      `yaml:"max_idle_conns"`
		ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
		Migrate         bool     `yaml:"migrate"`
	} `yaml:"storage"`

	Cache struct {
		// redis | memory
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Secret     string   `yaml:"secret"`
		Issuer     string   `yaml:"issuer"`
		AccessTTL  Duration `yaml:"access_ttl"`
		RefreshTTL Duration `yaml:"refresh_ttl"`

		// true si el secreto fue generado al arrancar (sólo dev)
		EphemeralSecret bool `yaml:"-"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool  `yaml:"enabled"`
		General Limit `yaml:"general"`
		Auth    Limit `yaml:"auth"`
		APIKey  struct {
			DefaultLimit  int64    `yaml:"default_limit"`
			DefaultWindow Duration `yaml:"default_window"`
			UserLimit     int64    `yaml:"user_limit"`
			IPLimit       int64    `yaml:"ip_limit"`
		} `yaml:"api_key"`
	} `yaml:"rate"`

	Security struct {
		RevocationFailMode       string `yaml:"revocation_fail_mode"`
		RateFailMode             string `yaml:"rate_fail_mode"`
		RequireEmailVerification bool   `yaml:"require_email_verification"`
		BcryptCost               int    `yaml:"bcrypt_cost"`
	} `yaml:"security"`

	// nombre de rol -> nivel
	Roles map[string]int `yaml:"roles"`

	Audit struct {
		Buffer int `yaml:"buffer"`
	} `yaml:"audit"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console; vacío = según app.env
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Refresh struct {
		SweepInterval Duration `yaml:"sweep_interval"`
	} `yaml:"refresh"`
}

// Load lee el YAML en path (opcional: si path es "" o no existe se usan defaults),
// aplica defaults, overrides de entorno y valida.
func Load(path string) (*Config, error) {
	c := &Config{}
	c.Rate.Enabled = true
	c.Metrics.Enabled = true

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if c.JWT.Secret == "" && c.IsDev() {
		c.JWT.Secret = randomSecret()
		c.JWT.EphemeralSecret = true
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// IsDev indica entorno de desarrollo (default cuando app.env está vacío).
func (c *Config) IsDev() bool {
	switch c.App.Env {
	case "", "dev", "development", "test":
		return true
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 10 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxOpenConns == 0 {
		c.Storage.MaxOpenConns = 20
	}
	if c.Storage.MaxIdleConns == 0 {
		c.Storage.MaxIdleConns = 5
	}
	if c.Storage.ConnMaxLifetime.Duration == 0 {
		c.Storage.ConnMaxLifetime.Duration = 30 * time.Minute
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "gk"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "gatekeeper"
	}
	if c.JWT.AccessTTL.Duration == 0 {
		c.JWT.AccessTTL.Duration = 15 * time.Minute
	}
	if c.JWT.RefreshTTL.Duration == 0 {
		c.JWT.RefreshTTL.Duration = 7 * 24 * time.Hour
	}
	if c.Rate.General.Limit == 0 {
		c.Rate.General.Limit = 60
	}
	if c.Rate.General.Window.Duration == 0 {
		c.Rate.General.Window.Duration = 60 * time.Second
	}
	if c.Rate.Auth.Limit == 0 {
		c.Rate.Auth.Limit = 5
	}
	if c.Rate.Auth.Window.Duration == 0 {
		c.Rate.Auth.Window.Duration = 900 * time.Second
	}
	if c.Rate.APIKey.DefaultLimit == 0 {
		c.Rate.APIKey.DefaultLimit = 600
	}
	if c.Rate.APIKey.DefaultWindow.Duration == 0 {
		c.Rate.APIKey.DefaultWindow.Duration = 60 * time.Second
	}
	if c.Rate.APIKey.UserLimit == 0 {
		c.Rate.APIKey.UserLimit = 60
	}
	if c.Rate.APIKey.IPLimit == 0 {
		c.Rate.APIKey.IPLimit = 120
	}
	if c.Security.RevocationFailMode == "" {
		c.Security.RevocationFailMode = FailClosed
	}
	if c.Security.RateFailMode == "" {
		c.Security.RateFailMode = FailClosed
	}
	if c.Security.BcryptCost == 0 {
		c.Security.BcryptCost = 12
	}
	if len(c.Roles) == 0 {
		c.Roles = map[string]int{"user": 0, "admin": 10}
	}
	if c.Audit.Buffer == 0 {
		c.Audit.Buffer = 256
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Refresh.SweepInterval.Duration == 0 {
		c.Refresh.SweepInterval.Duration = time.Hour
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// getEnvDur acepta duraciones Go ("15m") o segundos enteros ("900").
func getEnvDur(key string) (time.Duration, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL.Duration = v
	}
	if v, ok := getEnvDur("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL.Duration = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt64("RATE_LIMIT_REQUESTS"); ok {
		c.Rate.General.Limit = v
	}
	if v, ok := getEnvDur("RATE_LIMIT_WINDOW"); ok {
		c.Rate.General.Window.Duration = v
	}
	if v, ok := getEnvInt64("AUTH_RATE_LIMIT_REQUESTS"); ok {
		c.Rate.Auth.Limit = v
	}
	if v, ok := getEnvDur("AUTH_RATE_LIMIT_WINDOW"); ok {
		c.Rate.Auth.Window.Duration = v
	}
	if v, ok := getEnvInt64("API_KEY_RATE_LIMIT_DEFAULT"); ok {
		c.Rate.APIKey.DefaultLimit = v
	}
	if v, ok := getEnvDur("API_KEY_WINDOW_DEFAULT"); ok {
		c.Rate.APIKey.DefaultWindow.Duration = v
	}
	if v, ok := getEnvInt64("API_KEY_USER_RATE_LIMIT"); ok {
		c.Rate.APIKey.UserLimit = v
	}
	if v, ok := getEnvInt64("API_KEY_IP_RATE_LIMIT"); ok {
		c.Rate.APIKey.IPLimit = v
	}

	// SECURITY
	if v, ok := getEnvStr("REVOCATION_FAIL_MODE"); ok {
		c.Security.RevocationFailMode = strings.ToLower(v)
	}
	if v, ok := getEnvStr("RATE_FAIL_MODE"); ok {
		c.Security.RateFailMode = strings.ToLower(v)
	}
	if v, ok := getEnvBool("REQUIRE_EMAIL_VERIFICATION"); ok {
		c.Security.RequireEmailVerification = v
	}
	if v, ok := getEnvInt("BCRYPT_COST"); ok {
		c.Security.BcryptCost = v
	}
	if v, ok := getEnvKVList("ROLES", ","); ok && len(v) > 0 {
		roles := make(map[string]int, len(v))
		for name, lvl := range v {
			if n, err := strconv.Atoi(lvl); err == nil {
				roles[name] = n
			}
		}
		c.Roles = roles
	}

	// MISC
	if v, ok := getEnvInt("AUDIT_BUFFER"); ok {
		c.Audit.Buffer = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvDur("REFRESH_SWEEP_INTERVAL"); ok {
		c.Refresh.SweepInterval.Duration = v
	}
}

// Validate rechaza configuraciones que dejarían un gate en estado indefinido.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d bytes", MinSecretLen))
	}
	if c.JWT.AccessTTL.Duration <= 0 || c.JWT.RefreshTTL.Duration <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}
	for name, l := range map[string]Limit{"rate.general": c.Rate.General, "rate.auth": c.Rate.Auth} {
		if l.Limit <= 0 || l.Window.Duration <= 0 {
			errs = append(errs, fmt.Errorf("%s: limit and window must be positive", name))
		}
	}
	if c.Rate.APIKey.DefaultLimit <= 0 || c.Rate.APIKey.DefaultWindow.Duration <= 0 {
		errs = append(errs, errors.New("rate.api_key: default limit and window must be positive"))
	}
	for key, mode := range map[string]string{
		"security.revocation_fail_mode": c.Security.RevocationFailMode,
		"security.rate_fail_mode":       c.Security.RateFailMode,
	} {
		if mode != FailClosed && mode != FailOpen {
			errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", key, FailClosed, FailOpen, mode))
		}
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported", c.Cache.Kind))
	}
	if len(c.Roles) == 0 {
		errs = append(errs, errors.New("roles must not be empty"))
	}

	return errors.Join(errs...)
}

// parse env of form "k1=v1<sep>k2=v2" into map
func parseKVList(s, sep string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]string{}
	}
	items := strings.Split(s, sep)
	out := make(map[string]string, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if i := strings.IndexRune(it, '='); i > 0 {
			k := strings.TrimSpace(it[:i])
			v := strings.TrimSpace(it[i+1:])
			if k != "" && v != "" {
				out[k] = v
			}
		}
	}
	return out
}

func getEnvKVList(key, sep string) (map[string]string, bool) {
	if s, ok := getEnvStr(key); ok {
		return parseKVList(s, sep), true
	}
	return nil, false
}

func randomSecret() string {
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		panic("config: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
