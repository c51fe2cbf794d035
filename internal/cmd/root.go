// Package cmd wires the cobra CLI to the capture, classification,
// formatting, and reporting packages: flag parsing and process lifecycle
// live here, everything else is delegated to internal packages with no
// knowledge of the command line.
package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"centrifuge/internal/capture"
	"centrifuge/internal/centrifuge"
	"centrifuge/internal/config"
	"centrifuge/internal/flow"
	"centrifuge/internal/format"
	"centrifuge/internal/metrics"
	"centrifuge/internal/report"
	"centrifuge/internal/worker"
)

var cfg = config.Default()

// NewRootCommand builds the centrifuge CLI: a single command that runs a
// live or offline capture, classifies every frame, prints it through the
// selected formatter, and on shutdown prints the accumulated connections
// and calls tables.
func NewRootCommand() *cobra.Command {
	var verboseCount int
	var configPath string

	root := &cobra.Command{
		Use:     "centrifuge [device]",
		Short:   "Classify and analyze captured RTP/RTCP traffic",
		Version: cfg.Version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Device = args[0]
			}
			cfg.Verbosity = centrifuge.Verbosity(verboseCount)
			if configPath != "" {
				if err := config.LoadOverlay(&cfg, configPath); err != nil {
					return err
				}
			}
			return run(c.Context(), cfg)
		},
	}

	configureLogging()

	flags := root.Flags()
	flags.BoolVarP(&cfg.Promisc, "promisc", "p", false, "enable promiscuous mode on the capture device")
	flags.StringVarP(&cfg.ReadFile, "read", "r", "", "read frames from a pcap/pcapng file instead of a live device")
	flags.CountVarP(&verboseCount, "verbose", "v", "increase output verbosity (stackable, -v through -vvvv)")
	flags.BoolVar(&debugging, "debugging", false, "use the verbose multi-line debug formatter")
	flags.StringVarP(&outputFormat, "format", "o", "compact", "output format: compact, debug, or json")
	flags.IntVarP(&cfg.Threads, "threads", "n", runtime.NumCPU(), "number of classification worker goroutines")
	flags.IntVar(&cfg.Threads, "cpus", runtime.NumCPU(), "alias for --threads")
	flags.StringVar(&cfg.LocalIP, "local-ip", "", "local IPv4/IPv6 address used to assign ingress/egress direction")
	flags.StringVar(&rtpHeuristic, "rtp-port-heuristic", "parity", "RTP/RTCP port heuristic: parity or range")
	flags.Uint16Var(&cfg.Discriminator.PortRangeLow, "rtp-port-range-low", cfg.Discriminator.PortRangeLow, "low end of the RTP port range heuristic")
	flags.Uint16Var(&cfg.Discriminator.PortRangeHigh, "rtp-port-range-high", cfg.Discriminator.PortRangeHigh, "high end of the RTP port range heuristic")
	flags.StringVar(&configPath, "config", "", "JSON overlay file for clock rates and frame duration")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address for the /metrics and /healthz HTTP server")

	return root
}

var (
	debugging    bool
	outputFormat string
	rtpHeuristic string
)

func configureLogging() {
	lev, err := zerolog.ParseLevel(os.Getenv("CENTRIFUGE_LOG_LEVEL"))
	if err != nil || lev == zerolog.NoLevel {
		lev = zerolog.WarnLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.StampMicro,
	}).With().Timestamp().Logger().Level(lev)
}

func resolveFormatter(cfg config.Config) format.Formatter {
	if debugging {
		return format.Debug{}
	}
	switch config.OutputFormat(outputFormat) {
	case config.FormatJSON:
		return format.JSON{}
	case config.FormatDebug:
		return format.Debug{}
	default:
		return format.NewCompact()
	}
}

func resolveSource(cfg config.Config) (capture.Source, error) {
	if cfg.ReadFile != "" {
		return capture.NewFile(cfg.ReadFile)
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("a capture device or -r/--read file is required")
	}
	return capture.NewLive(cfg.Device, cfg.Promisc)
}

func run(ctx context.Context, cfg config.Config) error {
	h, err := parseHeuristic(rtpHeuristic)
	if err != nil {
		return err
	}
	cfg.Discriminator.Heuristic = h

	src, err := resolveSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	threads := cfg.Threads
	if cfg.ReadFile != "" {
		// Preserve file ordering: a single worker reads sequentially.
		threads = 1
	}
	if threads < 1 {
		threads = 1
	}

	metrics.Register()
	metricsServer := metrics.NewServer(cfg.MetricsAddr)
	metricsServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	metrics.RegisterHealthCheck("capture", func() metrics.ComponentHealth {
		return metrics.ComponentHealth{Status: metrics.StatusUp, LastChecked: time.Now()}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	pool := &worker.Pool{Source: src, Classifier: centrifuge.NewClassifier(cfg.Discriminator), Workers: threads}
	formatter := resolveFormatter(cfg)

	connMap := flow.NewConnectionMap()
	localIP := parseLocalIP(cfg.LocalIP)

	for cf := range pool.Run(ctx) {
		if centrifuge.ShouldDisplay(cf.Tree, cfg.Verbosity) {
			fmt.Println(formatter.Format(cf.Timestamp, cf.Tree))
		}
		if localIP != nil {
			if fd, ok := flow.Extract(localIP, cf.Timestamp, cf.Tree); ok {
				connMap.Add(fd)
			}
		}
	}

	printShutdownReport(cfg, connMap)
	return nil
}

func printShutdownReport(cfg config.Config, connMap *flow.ConnectionMap) {
	connections := connMap.List()
	if len(connections) == 0 {
		return
	}
	metrics.ConnectionsFormed.Set(float64(len(connections)))

	fmt.Fprintln(os.Stderr, "\nconnections:")
	report.WriteConnections(os.Stderr, connections)

	reports := report.BuildCallReports(connections, cfg.ClockRateFor, cfg.FrameDurationUs)
	metrics.CallsFormed.Set(float64(len(reports)))

	fmt.Fprintln(os.Stderr, "\ncalls:")
	report.WriteCalls(os.Stderr, reports)
}

func parseHeuristic(s string) (centrifuge.PortHeuristic, error) {
	switch s {
	case "parity", "":
		return centrifuge.PortHeuristicParity, nil
	case "range":
		return centrifuge.PortHeuristicRange, nil
	default:
		return 0, fmt.Errorf("unknown --rtp-port-heuristic %q: want parity or range", s)
	}
}

func parseLocalIP(s string) net.IP {
	if s == "" {
		return nil
	}
	return net.ParseIP(s)
}
