// Command burnrate runs the employee burnout pipeline: preprocessing, model
// selection, batch prediction, reporting and the dashboard.
//
// Usage:
//
//	burnrate [-config file.yaml] [-console] <command>
//
// Commands: preprocess, train, predict, insights, eda, serve, all.
// Settings come from defaults, the YAML file named by -config or
// BURNRATE_CONFIG, and BURNRATE_* environment variables, in that order.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/burnrate/config"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("burnrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file (overrides "+config.FileEnv+")")
	console := fs.Bool("console", false, "human-readable log output instead of JSON")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: burnrate [flags] <%s>\n", commandList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	if *configPath != "" {
		if err := os.Setenv(config.FileEnv, *configPath); err != nil {
			fmt.Fprintf(stderr, "set %s: %v\n", config.FileEnv, err)
			return 1
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, closer, err := log.Setup(log.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: *console,
		Stderr:  stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	p := &pipeline{cfg: cfg, logger: logger, out: stdout}
	if err := cmd(p, ctx); err != nil {
		logger.Error("command failed", err, "command", fs.Arg(0))
		color.New(color.FgRed, color.Bold).Fprintf(stderr, "burnrate %s: %v\n", fs.Arg(0), err)
		return 1
	}
	return 0
}
