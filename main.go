package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"stockwatch/internal/config"
	"stockwatch/internal/logging"
)

// topStoriesArg is the value --news takes when no symbol is given.
const topStoriesArg = "general"

// command holds the action flags; configuration flags are read through config.Load.
type command struct {
	search  []string
	news    string
	metrics string
	add     string
	remove  string
	watch   bool
}

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("stockwatch failed", "error", err)
		os.Exit(1)
	}
}

func newFlagSet(cmd *command, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("stockwatch", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringArrayVar(&cmd.search, "search", nil, "search symbols; repeat to simulate typing, only the last query is sent")
	flags.StringVar(&cmd.news, "news", "", "show top stories, or company news with --news=SYMBOL")
	flags.Lookup("news").NoOptDefVal = topStoriesArg
	flags.StringVar(&cmd.metrics, "metrics", "", "show financial metrics for SYMBOL")
	flags.StringVar(&cmd.add, "add", "", "add SYMBOL=Company Name to the watchlist")
	flags.StringVar(&cmd.remove, "remove", "", "remove SYMBOL from the watchlist")
	flags.BoolVar(&cmd.watch, "watch", false, "refresh the watchlist on refresh-schedule until interrupted")

	flags.String(config.FlagName("provider"), config.ProviderFinnhub, "candle provider: finnhub or alphavantage")
	flags.Int(config.FlagName("window_days"), 7, "trailing days of candles to request")
	flags.String(config.FlagName("resolution"), "1", "candle resolution")
	flags.Int(config.FlagName("max_concurrency"), 0, "maximum fetches in flight (0 = unbounded)")
	flags.Int(config.FlagName("retry_count"), 0, "retries for transient HTTP failures")
	flags.Float64(config.FlagName("requests_per_second"), 1, "Finnhub request rate (0 = unlimited)")
	flags.String(config.FlagName("refresh_schedule"), "", "cron spec for --watch refreshes")
	flags.String(config.FlagName("watchlist_db"), "", "SQLite watchlist path (empty = in memory)")
	flags.String(config.FlagName("log_level"), "info", "log level: debug, info, warn, error")
	flags.String(config.FlagName("log_format"), "text", "log format: text or json")
	return flags
}

// run parses args, wires the application and executes one command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cmd command
	flags := newFlagSet(&cmd, stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, stderr); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case len(cmd.search) > 0:
		return a.search(ctx, cmd.search)
	case flags.Changed("news"):
		symbol := cmd.news
		if symbol == topStoriesArg {
			symbol = ""
		}
		return a.news(ctx, symbol)
	case cmd.metrics != "":
		return a.financials(ctx, cmd.metrics)
	}

	if cmd.add != "" {
		symbol, name, _ := strings.Cut(cmd.add, "=")
		if err := a.add(ctx, symbol, name); err != nil {
			return err
		}
	}
	if cmd.remove != "" {
		if err := a.remove(ctx, cmd.remove); err != nil {
			return err
		}
	}

	if cmd.watch {
		return a.watch(ctx)
	}
	return a.refreshOnce(ctx)
}
