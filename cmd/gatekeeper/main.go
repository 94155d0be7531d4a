package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeeper/internal/app"
	"github.com/dropDatabas3/gatekeeper/internal/config"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

var version = "dev"

type cli struct {
	configPath string
	envFile    string
}

// container construye la capa de datos sin el servidor HTTP.
func (c *cli) container(ctx context.Context) (*app.Container, error) {
	_ = godotenv.Load(c.envFile)
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "gatekeeper-cli",
		Version:     version,
	})
	return app.Build(ctx, cfg, app.Options{SkipHTTP: true})
}

// requireDB corta los comandos que no tienen sentido con storage en memoria.
func requireDB(c *app.Container) error {
	if c.DB == nil {
		return errors.New("this command needs storage.driver=postgres (STORAGE_DRIVER)")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "gatekeeper",
		Short:         "Tareas administrativas de gatekeeper (migraciones, tokens, API keys)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "archivo .env a cargar si existe")

	root.AddCommand(
		newMigrateCmd(c),
		newPurgeRefreshCmd(c),
		newRevokeUserCmd(c),
		newAPIKeyCmd(c),
		newUserCmd(c),
		newHashPasswordCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
