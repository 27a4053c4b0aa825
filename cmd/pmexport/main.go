// Command pmexport looks up one wallet and writes its portfolio as PDF, XLSX
// or JSON without running the dashboard server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/address"
	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
	"github.com/azariak/PolymarketDataVisualizer/internal/app"
	"github.com/azariak/PolymarketDataVisualizer/internal/config"
	"github.com/azariak/PolymarketDataVisualizer/internal/export"
	"github.com/azariak/PolymarketDataVisualizer/internal/logger"
	"github.com/azariak/PolymarketDataVisualizer/internal/metrics"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `pmexport [flags] <address>

Flags:
  --format     pdf|xlsx|json (default pdf)
  --out        output file; "-" writes to stdout (default polymarket-<address>.<format>)
  --config     config file (env: PMD_CONFIG)
  --env-only   read config from PMD_* environment only
  --recent     print the recently viewed addresses and exit (needs recent.backend=postgres)
`)
}

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred cleanup runs before main exits.
func realMain() int {
	var (
		format  = flag.String("format", "pdf", "Output format: pdf|xlsx|json")
		out     = flag.String("out", "", "Output file, - for stdout")
		cfgPath = flag.String("config", "", "Config file (env: PMD_CONFIG)")
		envOnly = flag.Bool("env-only", false, "Read config from environment only")
		list    = flag.Bool("recent", false, "Print recently viewed addresses")
	)
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv("PMD_CONFIG")
	}
	if path == "" {
		*envOnly = true
	}
	cfg, err := config.Load(path, *envOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		return 1
	}
	defer log.Sync()

	deps, err := app.Open(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *list {
		err = printRecent(ctx, deps, cfg.Recent.Backend, os.Stdout)
	} else {
		err = run(ctx, deps, log, flag.Args(), *format, *out)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func run(ctx context.Context, deps *app.Deps, log *zap.Logger, args []string, format, out string) error {
	if len(args) != 1 {
		usage(os.Stderr)
		return errors.New("exactly one address required")
	}
	addr, err := address.Normalize(args[0])
	if err != nil {
		return err
	}

	var exporter export.Exporter
	if !strings.EqualFold(format, "json") {
		exporter, err = deps.Exports.Get(format)
		if err != nil {
			return fmt.Errorf("%w (enabled: %v)", err, deps.Exports.Formats())
		}
	}

	snap, err := deps.Aggregator.Run(ctx, addr, 0, nil)
	if errors.Is(err, portfolio.ErrAllEndpointsFailed) {
		return errors.New(portfolio.LookupFailedMessage)
	}
	if err != nil {
		return err
	}
	if err := deps.Recent.Touch(ctx, addr, metrics.RecentSummary(snap)); err != nil {
		log.Warn("record recent address failed", zap.Error(err))
	}
	view := analytics.BuildView(snap, deps.Options)

	if out == "" {
		ext := export.Format("json")
		if exporter != nil {
			ext = exporter.Format()
		}
		out = export.Filename(addr, ext)
	}
	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if exporter == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(view)
	} else {
		err = exporter.Write(w, view)
	}
	if err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintln(os.Stderr, "wrote", out)
	}
	return nil
}

// ErrRecentNotPersisted is returned by --recent when the list lives only in
// process memory and so is always empty for a fresh CLI process.
var ErrRecentNotPersisted = errors.New("--recent needs recent.backend=postgres; the memory backend is not kept between runs")

func printRecent(ctx context.Context, deps *app.Deps, backend string, w io.Writer) error {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return ErrRecentNotPersisted
	}
	entries, err := deps.Recent.List(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
