package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if os.Getenv("PESPLAN_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("PESPLAN_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "pesplan",
		Description: "Periodic timetabling for public transport: event-activity networks, passenger routing and PESP/CPF optimisation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file (defaults apply when empty)",
			},
			&cli.StringFlag{
				Name:  "data",
				Value: ".",
				Usage: "dataset directory in the LinTim layout",
			},
		},
		Commands: []*cli.Command{
			registerEANCLI(),
			registerPassengersCLI(),
			registerTimetableCLI(),
		},
	}
}
