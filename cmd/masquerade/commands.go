package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/masquerade/internal/api"
	"github.com/songzhibin97/masquerade/internal/data/collector/static"
	"github.com/songzhibin97/masquerade/internal/defi"
	"github.com/songzhibin97/masquerade/internal/marketplace"
	"github.com/songzhibin97/masquerade/internal/pools"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

func newScoreCmd() *cobra.Command {
	defaults := static.DefaultPoolStats()

	var (
		poolSize, mixers, anonymitySet float64
		level                          string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Calculate the privacy score for a pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl := config.DefaultLevel()
			if level != "" {
				var err error
				if lvl, err = privacy.ParsePrivacyLevel(level); err != nil {
					return err
				}
			}

			stats, err := privacy.NewPoolStats(poolSize, mixers, anonymitySet)
			if err != nil {
				return err
			}

			metrics := stats.Score(lvl)
			return printJSON(cmd, api.ScoreResponse{
				PrivacyMetrics: metrics,
				Level:          lvl,
				Grade:          privacy.ScoreGrade(metrics.TotalScore),
			})
		},
	}

	cmd.Flags().Float64Var(&poolSize, "pool-size", defaults.PoolSize, "pool liquidity in USD")
	cmd.Flags().Float64Var(&mixers, "mixers", defaults.ActiveMixers, "active mixers")
	cmd.Flags().Float64Var(&anonymitySet, "anonymity-set", defaults.AnonymitySet, "anonymity set size")
	cmd.Flags().StringVar(&level, "level", "", "standard|advanced|maximum")
	return cmd
}

func newGasCmd() *cobra.Command {
	var (
		amount, ethPrice float64
		level            string
	)

	cmd := &cobra.Command{
		Use:   "gas",
		Short: "Estimate gas and cost for a private transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl := config.DefaultLevel()
			if level != "" {
				var err error
				if lvl, err = privacy.ParsePrivacyLevel(level); err != nil {
					return err
				}
			}

			if err := checkETHPriceFlag(ethPrice); err != nil {
				return err
			}

			source := "flag"
			if ethPrice == 0 {
				tick, err := newCollector(config).CollectETHPrice(cmd.Context())
				if err != nil {
					return err
				}
				ethPrice, source = tick.Price, tick.Source
			}

			return printJSON(cmd, api.GasResponse{
				GasEstimate: privacy.EstimateGasCostWithFees(amount, lvl, ethPrice, config.Fees()),
				Level:       lvl,
				ETHPriceUSD: ethPrice,
				PriceSource: source,
			})
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount in ETH (does not change the estimate)")
	cmd.Flags().Float64Var(&ethPrice, "eth-price", 0, "ETH/USD price, fetched when unset or 0")
	cmd.Flags().StringVar(&level, "level", "", "standard|advanced|maximum")
	return cmd
}

// checkETHPriceFlag accepts 0 (fetch a live price) or a finite positive price.
func checkETHPriceFlag(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: --eth-price must be a finite positive number, got %v", privacy.ErrInvalidInput, v)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStorage(config)
			if err != nil {
				return err
			}
			defer closeStore()

			simCfg, err := config.SimulatorSettings()
			if err != nil {
				return err
			}

			var recorder pools.Recorder
			var catalog *marketplace.Catalog
			if store != nil {
				recorder = store
				catalog = marketplace.NewCatalog(store, log)
			} else {
				log.Info("no storage configured, agent routes disabled")
			}

			simulator := pools.NewSimulator(pools.NewTracker(), simCfg, recorder, log)
			defer simulator.Close()

			fees := config.Fees()
			collector := newCollector(config)
			server := api.New(api.Options{
				Collector:       collector,
				Catalog:         catalog,
				Simulator:       simulator,
				Desk:            defi.NewDesk(),
				DefaultLevel:    config.DefaultLevel(),
				DefaultETHPrice: config.Privacy.DefaultETHPrice,
				Fees:            &fees,
				Logger:          log,
			})

			refresh, err := config.RefreshEvery()
			if err != nil {
				return err
			}
			if err := server.WatchPrice(ctx, refresh); err != nil {
				return err
			}

			if err := server.Run(ctx, config.ListenAddr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newSyncAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-agents",
		Short: "Push canonical descriptions and pricing to the agent store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStorage(config)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return errors.New("sync-agents needs backend.url or database.conn_str")
			}

			results, err := marketplace.SyncAgentData(cmd.Context(), store, marketplace.CanonicalUpdates(), log)
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently recorded pool transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStorage(config)
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return errors.New("history needs backend.url or database.conn_str")
			}

			records, err := store.ListRecentTransactions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			return printJSON(cmd, records)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "number of transactions")
	return cmd
}
