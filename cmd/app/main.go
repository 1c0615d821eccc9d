package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"VolScreen/internal/di"
	"VolScreen/pkg/config"
	"VolScreen/pkg/util"

	"github.com/spf13/cobra"
)

var configPath string

var rootCMD = &cobra.Command{
	Use:   "volscreen",
	Short: "Volatility stock screener",
	Long: `Scores a watchlist of equities by historical volatility, earnings
surprise and relative volume, and ranks the most volatile names.`,
	SilenceUsage: true,
}

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer cleanup()

		return app.Run(cmd.Context())
	},
}

var (
	screenSymbols string
	screenTopN    int
	screenFull    bool
)

var screenCMD = &cobra.Command{
	Use:   "screen",
	Short: "Run one screening pass and print JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		// keep stdout clean for the JSON document
		if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
			cfg.Log.Output = "stderr"
		}

		svc, cleanup, err := di.InitializeScreener(cfg)
		if err != nil {
			return fmt.Errorf("screener initialization failed: %w", err)
		}
		defer cleanup()

		res := svc.Run(cmd.Context(), util.SplitList(screenSymbols), screenTopN)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if screenFull {
			return enc.Encode(res)
		}
		return enc.Encode(res.Results)
	},
}

func init() {
	rootCMD.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	screenCMD.Flags().StringVar(&screenSymbols, "symbols", "", "comma separated watchlist (default: configured watchlist)")
	screenCMD.Flags().IntVar(&screenTopN, "top-n", 0, "number of results (default: screening.top_n)")
	screenCMD.Flags().BoolVar(&screenFull, "full", false, "print the whole run envelope")

	rootCMD.AddCommand(serveCMD, screenCMD)
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCMD.ExecuteContext(ctx)
}

func main() {
	if err := execute(); err != nil {
		log.Printf("volscreen: %v", err)
		os.Exit(1)
	}
}
