package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const defaultPath = "cmd/tramctl/config.toml"

func main() {
	logging.ConfigureRuntime(logging.Options{App: "configgen"})
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("configgen failed")
	}
}

func run(args []string, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("configgen", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	output := flagSet.String("output", defaultPath, "output path for the config template")
	validate := flagSet.Bool("validate", false, "validate an existing config file")
	input := flagSet.String("input", defaultPath, "config path for validation")
	force := flagSet.Bool("force", false, "overwrite an existing config file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			return err
		}
		log.Info().
			Str("path", *input).
			Str("source", cfg.Source.Address()).
			Str("render", cfg.Render.Mode).
			Msg("config valid")
		return nil
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Info().Str("path", *output).Msg("wrote config template")
	return nil
}
