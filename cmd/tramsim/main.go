// tramsim serves a synthetic tram feed for exercising tramctl.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tramsim: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := defaultSimConfig()
	var host, logLevel string

	flagSet := pflag.NewFlagSet("tramsim", pflag.ContinueOnError)
	flagSet.StringVar(&host, "host", "127.0.0.1", "listen host")
	flagSet.DurationVar(&cfg.Interval, "interval", cfg.Interval, "delay between records per client")
	flagSet.IntVar(&cfg.Trams, "trams", cfg.Trams, "fleet size")
	flagSet.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flagSet.IntVar(&cfg.MaxChunk, "max-chunk", cfg.MaxChunk, "largest write in bytes; records are split across writes")
	flagSet.IntVar(&cfg.MaxCount, "max-count", cfg.MaxCount, "largest passenger count")
	flagSet.Float64Var(&cfg.BadValueRate, "bad-value-rate", 0, "fraction of passenger counts sent as non-numeric")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: tramsim [flags] <port>")
	}
	port, err := config.ParsePort(flagSet.Arg(0))
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	logging.ConfigureRuntime(logging.Options{App: "tramsim", Level: logLevel})

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	log.Info().Str("addr", ln.Addr().String()).Int("trams", cfg.Trams).Int64("seed", cfg.Seed).Msg("tramsim listening")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newSimulator(cfg).Serve(ctx, ln)
}
