// Package app arma el grafo de dependencias a partir de la configuración.
// cmd/service y cmd/gatekeeper comparten este wiring.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/gatekeeper/internal/audit"
	"github.com/dropDatabas3/gatekeeper/internal/authz"
	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/config"
	authctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/gatekeeper/internal/http/controllers/users"
	mw "github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/http/router"
	authsvc "github.com/dropDatabas3/gatekeeper/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/gatekeeper/internal/http/services/health"
	"github.com/dropDatabas3/gatekeeper/internal/jwt"
	"github.com/dropDatabas3/gatekeeper/internal/metrics"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/pipeline"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
	"github.com/dropDatabas3/gatekeeper/internal/revocation"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/store/apikey"
	"github.com/dropDatabas3/gatekeeper/internal/store/dbx"
	"github.com/dropDatabas3/gatekeeper/internal/store/refreshtoken"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
	migrations "github.com/dropDatabas3/gatekeeper/migrations/postgres"
)

// apiKeyCacheTTL acota cuánto tarda en verse una key desactivada.
const apiKeyCacheTTL = time.Minute

// Container agrupa las dependencias construidas.
type Container struct {
	Config *config.Config

	// DB es nil con storage.driver=memory.
	DB    *sql.DB
	Cache cache.Client

	Codec       *jwt.Codec
	Revocations *revocation.Store
	Users       user.Repository
	Refresh     refreshtoken.Repository
	APIKeys     apikey.Repository
	Audit       *audit.Dispatcher
	Gate        *pipeline.Gate
	Registry    *prometheus.Registry
	Handler     http.Handler
}

// Options de Build.
type Options struct {
	Version string
	// SkipHTTP arma sólo la capa de datos (CLI).
	SkipHTTP bool
}

// Build construye el Container. En error libera lo que ya abrió.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *Container, err error) {
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err := c.buildStorage(ctx); err != nil {
		return nil, err
	}

	c.Cache, err = cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	c.Codec, err = jwt.NewCodec(jwt.Config{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		AccessTTL: cfg.JWT.AccessTTL.Duration,
	})
	if err != nil {
		return nil, err
	}

	failMode, err := revocation.ParseFailMode(cfg.Security.RevocationFailMode)
	if err != nil {
		return nil, err
	}
	c.Revocations = revocation.New(c.Cache, revocation.Options{
		FailMode:      failMode,
		UserCutoffTTL: cfg.JWT.AccessTTL.Duration,
	})

	if opts.SkipHTTP {
		return c, nil
	}
	if err := c.buildHTTP(opts.Version); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) buildStorage(ctx context.Context) error {
	cfg := c.Config
	refreshOpts := refreshtoken.Options{TTL: cfg.JWT.RefreshTTL.Duration}

	switch cfg.Storage.Driver {
	case "memory":
		logger.L().Warn("using in-memory storage, data is lost on restart")
		c.Users = user.NewMemoryRepository()
		c.Refresh = refreshtoken.NewMemoryRepository(refreshOpts)
		c.APIKeys = apikey.NewMemoryRepository()
		return nil
	case "postgres":
	default:
		return fmt.Errorf("storage: unknown driver %q", cfg.Storage.Driver)
	}

	db, err := dbx.Open(ctx, cfg.Storage.DSN, dbx.PoolConfig{
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime.Duration,
	})
	if err != nil {
		return err
	}
	c.DB = db

	if cfg.Storage.Migrate {
		if err := dbx.Migrate(ctx, db, migrations.FS, migrations.Dir); err != nil {
			return err
		}
		logger.L().Info("migrations applied")
	}

	c.Users = user.NewPostgresRepository(db)
	c.Refresh = refreshtoken.NewPostgresRepository(db, refreshOpts)
	c.APIKeys = apikey.NewPostgresRepository(db)
	return nil
}

func (c *Container) buildHTTP(version string) error {
	cfg := c.Config

	roles, err := authz.NewHierarchy(cfg.Roles)
	if err != nil {
		return err
	}
	ips, err := mw.NewClientIP(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	c.Gate = &pipeline.Gate{
		Codec:        c.Codec,
		Revocations:  c.Revocations,
		Authorizer:   roles,
		APIKeys:      apikey.NewResolver(c.APIKeys, c.Cache, apiKeyCacheTTL),
		RateFailOpen: cfg.Security.RateFailMode == config.FailOpen,
	}
	if cfg.Rate.Enabled {
		limiter := rate.NewCacheLimiter(c.Cache)
		c.Gate.Limiter = limiter
		c.Gate.Policies = pipeline.Policies{
			General: rate.Policy{Name: rate.PolicyGeneral, Limit: cfg.Rate.General.Limit, Window: cfg.Rate.General.Window.Duration},
			Auth:    rate.Policy{Name: rate.PolicyAuth, Limit: cfg.Rate.Auth.Limit, Window: cfg.Rate.Auth.Window.Duration},
		}
		c.Gate.Tiered = &rate.Tiered{
			Limiter: limiter,
			Defaults: rate.APIKeyDefaults{
				Limit:     cfg.Rate.APIKey.DefaultLimit,
				Window:    cfg.Rate.APIKey.DefaultWindow.Duration,
				UserLimit: cfg.Rate.APIKey.UserLimit,
				IPLimit:   cfg.Rate.APIKey.IPLimit,
			},
		}
	}

	c.Audit = audit.NewDispatcher(audit.ZapSink{}, cfg.Audit.Buffer, func() { metrics.Infra("audit") })

	services := authsvc.NewServices(authsvc.Deps{
		Users:                    c.Users,
		Refresh:                  c.Refresh,
		Tokens:                   c.Codec,
		Revocations:              c.Revocations,
		Hasher:                   password.NewHasher(cfg.Security.BcryptCost),
		Policy:                   password.DefaultPolicy,
		Audit:                    c.Audit,
		RequireEmailVerification: cfg.Security.RequireEmailVerification,
	})

	critical := map[string]healthsvc.Pinger{"cache": healthsvc.PingFunc(c.Cache.Ping)}
	if c.DB != nil {
		critical["database"] = c.DB
	}
	health := healthsvc.NewHealthService(healthsvc.Deps{Version: version, Critical: critical})

	deps := router.Deps{
		Gate:      c.Gate,
		ClientIPs: ips,
		Auth:      authctrl.NewControllers(services),
		Users:     usersctrl.NewUsersController(services.Me),
		Health:    healthctrl.NewHealthController(health),
	}
	if cfg.Metrics.Enabled {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Register(c.Registry); err != nil {
			return err
		}
		deps.Metrics = metrics.Handler(c.Registry)
	}

	c.Handler = router.New(deps)
	return nil
}

// Close libera cache, DB y vacía el buffer de auditoría.
func (c *Container) Close() error {
	var errs []error
	if c.Audit != nil {
		c.Audit.Close()
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
