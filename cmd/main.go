package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/TooLazyToCreate/passport-auth/config"
	"github.com/TooLazyToCreate/passport-auth/internal/app"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "passport-auth",
		Short:        "User registration, login and bearer token service",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newConfigTemplateCommand())
	return root
}

func workingPath(name string) string {
	workingDir, err := os.Getwd()
	if err != nil {
		log.Fatal("os.Getwd() failed with error - " + err.Error())
	}
	return filepath.Join(workingDir, name)
}

func newServeCommand() *cobra.Command {
	var configPath, envPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			/* go.env необязателен: в контейнере переменные приходят из окружения */
			if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Fatal("Error loading .env file; Error - " + err.Error())
			}
			cfg := config.MustLoad(configPath)

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err = app.Run(ctx, logger, cfg); err != nil {
				logger.Error("Server have been stopped with error", zap.Error(err))
				return err
			}
			logger.Info("Server have been stopped.")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", workingPath("config.json"), "path to the JSON config")
	cmd.Flags().StringVar(&envPath, "env-file", workingPath("go.env"), "path to the env file with secrets")
	return cmd
}

func newConfigTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config-template [path]",
		Short: "Write a config.json with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := workingPath("config.json")
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			cmd.Println("Config template written to " + path)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.IsDev() {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
	} else {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapConfig.Development = false
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	return zapConfig.Build()
}
