package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/metatactoe-backend/internal"
	"github.com/rocketscienceinc/metatactoe-backend/internal/config"
)

const defaultConfigFile = "config.yml"

// main - is the entry point of the application. It builds the command tree and runs it.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		conf, err := initConfig(configPath)
		if err != nil {
			return err
		}

		if err = app.RunApp(initLogger(conf), conf); err != nil {
			return fmt.Errorf("app run failed: %w", err)
		}
		return nil
	}

	root := &cobra.Command{
		Use:          "metatactoe",
		Short:        "Realtime rooms and matches for the 9x9 meta tic-tac-toe board.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         serve,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file (default ./config.yml when present)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the websocket and HTTP servers",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(newWatchCmd(&configPath))

	root.CompletionOptions.HiddenDefaultCmd = true

	return root
}

func newWatchCmd(configPath *string) *cobra.Command {
	opts := app.WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join a room as an observer and log the open threats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := initConfig(*configPath)
			if err != nil {
				return err
			}

			if opts.ServerURL == "" {
				opts.ServerURL = "ws://localhost:" + conf.SocketPort
			}

			return app.RunWatch(initLogger(conf), opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.ServerURL, "url", "", "websocket server url (default ws://localhost:<socket-port>)")
	fs.StringVarP(&opts.Room, "room", "r", "", "room to watch")
	fs.StringVar(&opts.Password, "password", "", "room password")
	fs.StringVarP(&opts.PlayerID, "player", "p", "", "player id to join as (default a guest id)")
	fs.StringVar(&opts.Name, "name", "", "display name")
	fs.StringVar(&opts.PieceKey, "symbol", "", "piece key to claim in the room")

	_ = cmd.MarkFlagRequired("room")

	return cmd
}

// initialize config. Without an explicit path the working directory's config.yml is used when it
// exists and the environment alone otherwise.
func initConfig(path string) (*config.Config, error) {
	if path == "" {
		baseDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}

		candidate := filepath.Join(baseDir, defaultConfigFile)
		if _, err = os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
	}

	return config.Load(path)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
