package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/osm2ttm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("osm2ttm", pflag.ContinueOnError)
	configFile := flags.StringP("config-file", "c", osm2ttm.DEFAULT_CONFIG_FILE, "YAML configuration file. Flags below override its values")
	osm2ttm.RegisterFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := osm2ttm.DefaultAppConfig()
	if _, err := os.Stat(*configFile); err == nil || flags.Changed("config-file") {
		loaded, err := osm2ttm.LoadAppConfig(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.ApplyFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := osm2ttm.SetupLogging(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := osm2ttm.Run(ctx, cfg); err != nil {
		logrus.WithError(err).Error("Can't compute travel time matrix")
		stop()
		if osm2ttm.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
