// Package tracker wires the feed client, registry, renderer and status API
// into one process lifecycle.
package tracker

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/danmuck/tramctl/internal/render"
	"github.com/danmuck/tramctl/internal/render/tui"
	"github.com/danmuck/tramctl/internal/server"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service owns the registry for the lifetime of one run.
type Service struct {
	cfg    config.Config
	out    io.Writer
	reg    *registry.Registry
	client *ingest.Client
	status *server.Server
}

// NewService builds the components for cfg. Text output goes to out.
func NewService(cfg config.Config, out io.Writer) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	reg := registry.New()
	client, err := ingest.NewClient(cfg.Ingest(), reg)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}
	s := &Service{
		cfg:    cfg,
		out:    out,
		reg:    reg,
		client: client,
	}
	if cfg.Status.Addr != "" {
		s.status = server.New(cfg.Status.Addr, reg, client, server.WithToken(cfg.Status.Token))
	}
	return s, nil
}

func (s *Service) Registry() *registry.Registry {
	return s.reg
}

func (s *Service) Client() *ingest.Client {
	return s.client
}

// Run serves until SIGINT/SIGTERM or a fatal feed error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext serves until ctx ends, the user quits the dashboard, or a
// component fails. The registry is closed on return.
func (s *Service) RunContext(ctx context.Context) error {
	defer s.reg.Close()

	log.Info().
		Str("addr", s.cfg.Source.Address()).
		Str("render", s.cfg.Render.Mode).
		Str("status", s.cfg.Status.Addr).
		Msg("tracker.Service starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.client.Run(gctx)
	})

	switch s.cfg.Render.Mode {
	case config.RenderText:
		text := render.NewText(s.out)
		g.Go(func() error {
			return text.Run(gctx, s.reg, s.client.Updates())
		})
	case config.RenderTUI:
		model := tui.NewModel(s.reg, s.client, s.client.Updates())
		g.Go(func() error {
			return tui.Run(gctx, model)
		})
	}

	if s.status != nil {
		g.Go(func() error {
			return s.status.Run(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, tui.ErrQuit) {
		err = nil
	}
	if err != nil {
		log.Error().Err(err).Str("kind", ingest.Classify(err)).Msg("tracker.Service stopped")
		return err
	}
	log.Info().Int("entities", s.reg.Len()).Msg("tracker.Service stopped")
	return nil
}
