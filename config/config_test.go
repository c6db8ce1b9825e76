package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/config"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/eanbuild"
	"github.com/katalvlaran/pesplan/passenger"
	"github.com/katalvlaran/pesplan/timetabling"
)

func TestDefault_IsValid(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, zerolog.InfoLevel, c.Level())

	eanOpts, err := c.EANOptions()
	require.NoError(t, err)
	o := eanbuild.DefaultOptions()
	for _, opt := range eanOpts {
		opt(&o)
	}
	assert.Equal(t, eanbuild.DefaultOptions().FrequencyModel, o.FrequencyModel)
	assert.Equal(t, eanbuild.DefaultOptions().MinChange, o.MinChange)
	assert.True(t, o.Changes)
	assert.True(t, o.Headways)
}

func TestDecode_OverlaysDefaults(t *testing.T) {
	src := `
period: 20
ean:
  headway_model: LCM_REPRESENTATION
  min_change_time: 2
  turnarounds: true
passengers:
  change_model: formula_1
  change_penalty: 5
  workers: 2
timetabling:
  linear_model: PESP
  objective_model: TRAVELING_TIME
  time_limit: 30s
  node_limit: 1000
  use_initial_timetable: true
  fix_modulo: true
log_level: debug
`
	c, err := config.Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 20, c.Period)
	assert.Equal(t, 3.0, c.EAN.MaxWait)
	assert.Equal(t, 30*time.Second, c.Timetabling.TimeLimit)
	assert.Equal(t, zerolog.DebugLevel, c.Level())

	eanOpts, err := c.EANOptions()
	require.NoError(t, err)
	eo := eanbuild.DefaultOptions()
	for _, opt := range eanOpts {
		opt(&eo)
	}
	assert.Equal(t, 2.0, eo.MinChange)
	assert.True(t, eo.Turnarounds)
	assert.Equal(t, 5.0, eo.MinTurnaround)

	po := passenger.DefaultOptions()
	for _, opt := range c.PassengerOptions() {
		opt(&po)
	}
	assert.Equal(t, passenger.ChangeFormula1, po.Weights.Change)
	assert.Equal(t, 5.0, po.Weights.ChangePenalty)
	assert.Equal(t, 2, po.Workers)

	ttOpts, err := c.TimetablingOptions()
	require.NoError(t, err)
	to := timetabling.DefaultOptions()
	for _, opt := range ttOpts {
		opt(&to)
	}
	assert.Equal(t, timetabling.PESP, to.Model)
	assert.Equal(t, timetabling.TravelingTime, to.Objective)
	assert.Equal(t, 1000, to.Params.NodeLimit)
	assert.True(t, to.UseInitialTimetable)
	assert.True(t, to.FixModulo)
}

func TestNetworkOptions(t *testing.T) {
	c := config.Default()
	c.EAN.ChangeModel = "lcm_simplification"
	c.EAN.HeadwayModel = "LCM_REPRESENTATION"
	opts, err := c.NetworkOptions()
	require.NoError(t, err)
	net, err := ean.New(c.Period, opts...)
	require.NoError(t, err)
	assert.Equal(t, ean.ChangeLCMSimplification, net.ChangeModel())
	assert.Equal(t, ean.HeadwayLCMRepresentation, net.HeadwayModel())

	c.EAN.HeadwayModel = "NONE"
	_, err = c.NetworkOptions()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pesplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("period: 30\n"), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, c.Period)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecode_EmptyInput(t *testing.T) {
	c, err := config.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := config.Decode(strings.NewReader("perod: 20\n"))
	assert.Error(t, err)
}

func TestValidate_Invalid(t *testing.T) {
	cases := map[string]func(*config.Config){
		"period":          func(c *config.Config) { c.Period = 0 },
		"wait bounds":     func(c *config.Config) { c.EAN.MinWait, c.EAN.MaxWait = 4, 2 },
		"headway model":   func(c *config.Config) { c.EAN.HeadwayModel = "NONE" },
		"threshold":       func(c *config.Config) { c.Timetabling.CycleThreshold = 1.5 },
		"cyclebase model": func(c *config.Config) { c.Timetabling.CyclebaseModel = "random" },
		"solver":          func(c *config.Config) { c.Timetabling.Solver = "cplex" },
		"fix only":        func(c *config.Config) { c.Timetabling.FixModulo = true },
		"expression":      func(c *config.Config) { c.Passengers.ChangeModel = "EXPRESSION" },
		"log level":       func(c *config.Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := config.Default()
			mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalid), err)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := config.Default()
	c.Period = -1
	c.Passengers.Workers = -3
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period -1")
	assert.Contains(t, err.Error(), "workers -3")
}

func TestValidate_Unsupported(t *testing.T) {
	cases := map[string]func(*config.Config){
		"cpf with lcm changes": func(c *config.Config) { c.EAN.ChangeModel = "LCM_SIMPLIFICATION" },
		"multiplicity with lcm headways": func(c *config.Config) {
			c.EAN.FrequencyModel = "MULTIPLICITY"
			c.EAN.HeadwayModel = "LCM_OF_FREQUENCIES"
		},
		"linear model":    func(c *config.Config) { c.Timetabling.LinearModel = "MIP" },
		"objective model": func(c *config.Config) { c.Timetabling.ObjectiveModel = "COST" },
		"drive model":     func(c *config.Config) { c.Passengers.DriveModel = "FASTEST" },
		"bad expression": func(c *config.Config) {
			c.Passengers.ChangeModel = "EXPRESSION"
			c.Passengers.ChangeExpression = "lower +"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := config.Default()
			mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrUnsupported), err)
		})
	}

	c := config.Default()
	c.EAN.ChangeModel = "LCM_SIMPLIFICATION"
	c.Timetabling.LinearModel = "PESP"
	assert.NoError(t, c.Validate())
}
