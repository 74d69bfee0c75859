package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"banjocap/internal/config"
	"banjocap/internal/service"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "banjocap",
		Short:         "Market cap discrepancy scanner for Base tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd.ErrOrStderr())
		},
	}
	addGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newAnalyzeCmd(opts),
		newScanCmd(opts),
		newServeCmd(opts),
		newSamplesCmd(),
		newVersionCmd(),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", os.Getenv("BANJOCAP_CONFIG"), "path to YAML config file")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format (auto, console, json); overrides config")
}

// init loads configuration and builds the logger.
func (o *rootOptions) init(stderr io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	o.cfg = cfg

	logger, err := newLogger(stderr, cfg.Logging)
	if err != nil {
		return err
	}
	o.logger = logger
	return nil
}

func (o *rootOptions) service() *service.Service {
	return service.New(o.cfg, service.Options{Logger: o.logger})
}

// newLogger writes human-readable logs to terminals and JSON otherwise.
func newLogger(w io.Writer, cfg config.LoggingConfig) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	console := false
	switch cfg.Format {
	case "console":
		console = true
	case "json":
	default:
		if f, ok := w.(*os.File); ok {
			console = term.IsTerminal(int(f.Fd()))
		}
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
