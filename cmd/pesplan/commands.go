package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/passenger"
	"github.com/katalvlaran/pesplan/timetabling"
)

func registerEANCLI() *cli.Command {
	return &cli.Command{
		Name:  "ean",
		Usage: "Build the periodic event-activity network from the line concept",
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}
			net, err := s.network(true)
			if err != nil {
				return err
			}
			if err = s.data.WriteEAN(net); err != nil {
				return err
			}
			st := net.Stats()
			log.Info().
				Int("events", st.Events).
				Int("activities", st.Activities).
				Str("dir", s.data.Root).
				Msg("event-activity network written")

			return nil
		},
	}
}

// route distributes the OD demand over net.
func (s *session) route(ctx context.Context, net *ean.Network) error {
	m, err := s.data.OD()
	if err != nil {
		return err
	}
	engine, err := passenger.NewEngine(net, s.cfg.PassengerOptions()...)
	if err != nil {
		return err
	}
	_, err = engine.Distribute(ctx, m)

	return err
}

func registerPassengersCLI() *cli.Command {
	return &cli.Command{
		Name:  "passengers",
		Usage: "Route the OD demand through the network and store activity weights",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rebuild",
				Usage: "build the network from the line concept instead of reading it",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			s, err := newSession(c)
			if err != nil {
				return err
			}
			net, err := s.network(c.Bool("rebuild"))
			if err != nil {
				return err
			}
			if err = s.route(ctx, net); err != nil {
				return err
			}

			return s.data.WriteEAN(net)
		},
	}
}

func registerTimetableCLI() *cli.Command {
	return &cli.Command{
		Name:  "timetable",
		Usage: "Compute a passenger-weighted periodic timetable",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rebuild",
				Usage: "build the network from the line concept instead of reading it",
			},
			&cli.BoolFlag{
				Name:  "route",
				Usage: "route the OD demand before optimising",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			s, err := newSession(c)
			if err != nil {
				return err
			}
			net, err := s.network(c.Bool("rebuild"))
			if err != nil {
				return err
			}
			if c.Bool("route") {
				if err = s.route(ctx, net); err != nil {
					return err
				}
			}
			opts, err := s.cfg.TimetablingOptions()
			if err != nil {
				return err
			}
			res, err := timetabling.Solve(ctx, net, opts...)
			if err != nil {
				return err
			}
			if err = s.data.WriteEAN(net); err != nil {
				return err
			}
			if err = s.data.WriteTimetable(net); err != nil {
				return err
			}
			log.Info().
				Str("status", res.Status.String()).
				Float64("objective", res.Objective).
				Str("dir", s.data.Root).
				Msg("timetable written")

			return nil
		},
	}
}
