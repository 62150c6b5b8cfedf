package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/masquerade/internal/configs"
	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/data/backend"
	collectorData "github.com/songzhibin97/masquerade/internal/data/collector"
	"github.com/songzhibin97/masquerade/internal/data/collector/binance"
	"github.com/songzhibin97/masquerade/internal/data/collector/static"
	"github.com/songzhibin97/masquerade/internal/data/storage"
)

var (
	flagconf string

	config *configs.Config

	log = newLogger("debug")
)

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

func main() {
	root := &cobra.Command{
		Use:           "masquerade",
		Short:         "Privacy pool scoring, gas estimation and simulated pool operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 加载配置
			cfg, err := configs.Load(flagconf)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			config = cfg
			log = newLogger(cfg.LogLevel)

			if cfg.Proxy != "" {
				_ = os.Setenv("HTTP_PROXY", cfg.Proxy)
				_ = os.Setenv("HTTPS_PROXY", cfg.Proxy)
				log.Debug("set proxy ok", "proxy", cfg.Proxy)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flagconf, "conf", "", "config path, eg: --conf config.yaml")

	root.AddCommand(
		newScoreCmd(),
		newGasCmd(),
		newServeCmd(),
		newSyncAgentsCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// newCollector 价格先走交易所, 失败回退到静态数据
func newCollector(cfg *configs.Config) *collectorData.MultiSourceCollector {
	return collectorData.NewMultiSourceCollector([]collectorData.DataSource{
		binance.NewPriceSource(cfg.ExchangeConfig.APIKey, cfg.ExchangeConfig.SecretKey, cfg.ExchangeConfig.Testnet),
		static.NewSource(static.DefaultPoolStats(), cfg.Privacy.DefaultETHPrice),
	}, log)
}

// openStorage prefers the hosted backend over a direct database. It returns
// a nil store when neither is configured.
func openStorage(cfg *configs.Config) (data.DataStorage, func(), error) {
	switch {
	case cfg.Backend.URL != "":
		log.Debug("using hosted backend", "url", cfg.Backend.URL)
		return backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey), func() {}, nil

	case cfg.Database.ConnStr != "":
		s, err := storage.NewPostgresStorage(cfg.Database.ConnStr)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("init storager")
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error("Error closing storage", "err", err)
			}
		}, nil

	default:
		return nil, func() {}, nil
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
