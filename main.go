package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ahamadey27/wake-app/aisstream"
	"github.com/ahamadey27/wake-app/lookout"
	"github.com/ahamadey27/wake-app/tides"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Portal    Portal           `json:"portal" yaml:"portal"`
	Aisstream aisstream.Config `json:"aisstream" yaml:"aisstream"`
	Lookout   lookout.Query    `json:"lookout" yaml:"lookout"`
	Tides     tides.Config     `json:"tides" yaml:"tides"`
	LogLevel  string           `json:"logLevel" yaml:"logLevel"`
}

func main() {
	configFile := flag.String("c", "", "config file")
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config file: %s\n", err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(config.LogLevel),
	}))
	slog.SetDefault(logger)

	// The key never belongs in a config file that might get committed.
	if key := os.Getenv("AISSTREAM_API_KEY"); key != "" {
		config.Aisstream.Api = key
	}
	if config.Aisstream.Api == "" {
		logger.Error("aisstream api key is not set, use AISSTREAM_API_KEY or the config file")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	look := lookout.New(config.Aisstream, logger)
	tideClient := tides.NewClient(config.Tides, logger)
	server := NewServer(config.Portal, config.Lookout, look, tideClient, logger)

	logger.Info("portal listening",
		"addr", config.Portal.ListenAddr,
		"reference", config.Lookout.Reference,
		"station", config.Tides.Station,
	)
	server.ListenAndServe(ctx)
	logger.Info("shutdown complete")
}

// loadConfig reads JSON or YAML, picked by file extension.
func loadConfig(f string) (Config, error) {
	var config Config

	b, err := os.ReadFile(f)
	if err != nil {
		return config, fmt.Errorf("could not read file: %w", err)
	}

	switch filepath.Ext(f) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &config); err != nil {
			return config, fmt.Errorf("could not unmarshal yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &config); err != nil {
			return config, fmt.Errorf("could not unmarshal json: %w", err)
		}
	}

	return config, nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
