package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/ivtrader/broker"
	"github.com/rustyeddy/ivtrader/engine"
	"github.com/rustyeddy/ivtrader/feed"
	"github.com/rustyeddy/ivtrader/metrics"
	"github.com/rustyeddy/ivtrader/pkg/id"
	"github.com/rustyeddy/ivtrader/store"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trading session over a CSV bar file",
	Long: `Run the indicator, signal and trade-management loop over every bar in a
CSV file (time,high,low,close,volume[,iv]). Orders go to the paper executor.

The daily risk snapshot is kept in the configured store, so a restarted
session picks up the loss already taken today.

Example:
  trader run --bars data/nifty_1m.csv --config trader.yaml --metrics-addr :9102`,
	RunE: runRun,
}

var (
	runBarsPath    string
	runMetricsAddr string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runBarsPath, "bars", "b", "", "path to CSV bar file (required)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.MarkFlagRequired("bars")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runMetricsAddr != "" {
		cfg.Metrics.Addr = runMetricsAddr
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ev, err := cfg.Evaluator()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bars, err := feed.OpenCSV(runBarsPath, loc)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}
	defer bars.Close()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	paper := broker.NewPaper(log)
	eng, err := engine.New(engine.Config{
		Params:          cfg.IndicatorParams(),
		Evaluator:       ev,
		Trade:           cfg.TradeConfig(),
		MaxRiskPerTrade: cfg.Trade.MaxRiskPerTrade,
		LotSize:         cfg.Trade.LotSize,
		Location:        loc,
	},
		engine.WithLogger(log),
		engine.WithExecutor(paper),
		engine.WithStore(st),
		engine.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("session start", "bars", runBarsPath, "strategy", ev.Name(), "store", cfg.Store.Type)
	sum, err := eng.Run(ctx, bars)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%s)\n", eng.Day(), ev.Name())
	fmt.Fprintf(out, "  Bars:        %d\n", sum.Bars)
	fmt.Fprintf(out, "  Signals:     %d\n", sum.Signals)
	fmt.Fprintf(out, "  Opened:      %d (rejected %d)\n", sum.Opened, sum.Rejected)
	fmt.Fprintf(out, "  Take profit: %d\n", sum.TakeProfit)
	fmt.Fprintf(out, "  Stop loss:   %d\n", sum.StopLoss)
	fmt.Fprintf(out, "  Daily loss:  %.2f / %.2f\n", sum.DailyLoss, cfg.Trade.DailyLossLimit)
	if t, ok := eng.Manager().Active(); ok {
		fmt.Fprintf(out, "  Open trade:  %s\n", t)
		if opened, err := id.Time(t.ID); err == nil {
			fmt.Fprintf(out, "  Opened at:   %s\n", opened.In(loc).Format("2006-01-02 15:04"))
		}
	}
	fmt.Fprintf(out, "  Fills:       %d\n", len(paper.Fills()))
	return nil
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
