package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/pesplan/config"
	"github.com/katalvlaran/pesplan/dataset"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/eanbuild"
	"github.com/katalvlaran/pesplan/network"
)

// session holds the configuration and dataset of one command invocation.
type session struct {
	cfg  config.Config
	data *dataset.Dir
}

func newSession(c *cli.Context) (*session, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if os.Getenv("PESPLAN_DEBUG") != "YES" {
		log.Logger = log.Logger.Level(cfg.Level())
	}
	log.Debug().Interface("config", cfg).Msg("configuration loaded")

	return &session{cfg: cfg, data: dataset.Open(c.String("data"), cfg.DatasetOptions()...)}, nil
}

func (s *session) linePool() (*network.LinePool, error) {
	ptn, err := s.data.PTN()
	if err != nil {
		return nil, err
	}

	return s.data.LinePool(ptn)
}

// network loads the EAN from the dataset, or builds it from the line
// concept when no event file exists or rebuild is set.
func (s *session) network(rebuild bool) (*ean.Network, error) {
	pool, err := s.linePool()
	if err != nil {
		return nil, err
	}
	if !rebuild && s.data.Has(dataset.EventsFile) {
		opts, err := s.cfg.NetworkOptions()
		if err != nil {
			return nil, err
		}

		return s.data.EAN(pool, s.cfg.Period, opts...)
	}
	opts, err := s.cfg.EANOptions()
	if err != nil {
		return nil, err
	}

	return eanbuild.Build(pool, s.cfg.Period, opts...)
}
