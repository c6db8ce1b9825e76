package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/pesplan/cyclebase"
	"github.com/katalvlaran/pesplan/dataset"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/eanbuild"
	"github.com/katalvlaran/pesplan/od"
	"github.com/katalvlaran/pesplan/passenger"
	"github.com/katalvlaran/pesplan/solver"
	"github.com/katalvlaran/pesplan/timetabling"
)

// Sentinel errors for configuration.
var (
	// ErrInvalid indicates a value outside its domain.
	ErrInvalid = errors.New("config: invalid value")

	// ErrUnsupported indicates a model combination without an implementation.
	ErrUnsupported = errors.New("config: unsupported combination")
)

// Config is the complete parameter set of a planning run.
type Config struct {
	Period int `yaml:"period"`

	Dataset     Dataset     `yaml:"dataset"`
	EAN         EAN         `yaml:"ean"`
	Passengers  Passengers  `yaml:"passengers"`
	Timetabling Timetabling `yaml:"timetabling"`

	LogLevel string `yaml:"log_level"`
}

// Dataset controls how input files are interpreted.
type Dataset struct {
	DirectedLinks bool `yaml:"directed_links"`
	DirectedLines bool `yaml:"directed_lines"`
	Geographic    bool `yaml:"geographic"`
}

// EAN holds the network generation parameters.
type EAN struct {
	FrequencyModel string `yaml:"frequency_model"`
	ChangeModel    string `yaml:"change_model"`
	HeadwayModel   string `yaml:"headway_model"`

	MinWait   float64 `yaml:"min_wait_time"`
	MaxWait   float64 `yaml:"max_wait_time"`
	MinChange float64 `yaml:"min_change_time"`

	Turnarounds   bool    `yaml:"turnarounds"`
	MinTurnaround float64 `yaml:"min_turnaround_time"`

	Changes       bool `yaml:"changes"`
	Headways      bool `yaml:"headways"`
	LateAlignment bool `yaml:"late_alignment"`
}

// Passengers holds the routing parameters.
type Passengers struct {
	DriveModel       string  `yaml:"drive_model"`
	WaitModel        string  `yaml:"wait_model"`
	ChangeModel      string  `yaml:"change_model"`
	ChangePenalty    float64 `yaml:"change_penalty"`
	ChangeExpression string  `yaml:"change_expression"`
	UseTimetable     bool    `yaml:"use_timetable"`
	CacheAssumptions bool    `yaml:"cache_assumptions"`
	Workers          int     `yaml:"workers"`

	SymmetricOD bool `yaml:"symmetric_od"`
	CompleteOD  bool `yaml:"complete_od"`
}

// Timetabling holds the optimisation parameters.
type Timetabling struct {
	LinearModel         string        `yaml:"linear_model"`
	CyclebaseModel      string        `yaml:"cyclebase_model"`
	ObjectiveModel      string        `yaml:"objective_model"`
	UseInitialTimetable bool          `yaml:"use_initial_timetable"`
	FixModulo           bool          `yaml:"fix_modulo"`
	CycleThreshold      float64       `yaml:"cycle_threshold"`
	Solver              string        `yaml:"solver"`
	TimeLimit           time.Duration `yaml:"time_limit"`
	NodeLimit           int           `yaml:"node_limit"`
	Epsilon             float64       `yaml:"epsilon"`
}

// Default returns a period of 60 and the defaults of every package.
func Default() Config {
	return Config{
		Period: 60,
		EAN: EAN{
			FrequencyModel: "ATTRIBUTE",
			ChangeModel:    "SIMPLE",
			HeadwayModel:   "SIMPLE",
			MinWait:        1,
			MaxWait:        3,
			MinChange:      3,
			MinTurnaround:  5,
			Changes:        true,
			Headways:       true,
		},
		Passengers: Passengers{
			DriveModel:  string(passenger.DriveAverage),
			WaitModel:   string(passenger.WaitAverage),
			ChangeModel: string(passenger.ChangeMinimal),
		},
		Timetabling: Timetabling{
			LinearModel:    string(timetabling.CPF),
			CyclebaseModel: "unexplored_vertices",
			ObjectiveModel: string(timetabling.Slack),
			CycleThreshold: 1,
			Solver:         "bnb",
			Epsilon:        1e-4,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return Decode(bytes.NewReader(b))
}

// Decode reads YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks every value and rejects unsupported model combinations
// before any work starts. All problems are reported in one error.
func (c Config) Validate() error {
	var bad []string
	fail := func(format string, args ...any) { bad = append(bad, fmt.Sprintf(format, args...)) }

	if c.Period <= 0 {
		fail("period %d", c.Period)
	}
	freq, err := c.frequencyModel()
	if err != nil {
		fail("%v", err)
	}
	change, err := c.changeModel()
	if err != nil {
		fail("%v", err)
	}
	headway, err := c.headwayModel()
	if err != nil {
		fail("%v", err)
	}
	if c.EAN.MinWait < 0 || c.EAN.MinWait > c.EAN.MaxWait {
		fail("wait bounds [%g,%g]", c.EAN.MinWait, c.EAN.MaxWait)
	}
	if c.EAN.MinChange < 0 {
		fail("min change time %g", c.EAN.MinChange)
	}
	if c.EAN.MinTurnaround < 0 {
		fail("min turnaround time %g", c.EAN.MinTurnaround)
	}
	if c.Passengers.Workers < 0 {
		fail("workers %d", c.Passengers.Workers)
	}
	if c.Passengers.ChangePenalty < 0 {
		fail("change penalty %g", c.Passengers.ChangePenalty)
	}
	if strings.EqualFold(c.Passengers.ChangeModel, string(passenger.ChangeExpression)) && strings.TrimSpace(c.Passengers.ChangeExpression) == "" {
		fail("change model %s without change_expression", passenger.ChangeExpression)
	}
	if c.Timetabling.CycleThreshold < 0 || c.Timetabling.CycleThreshold > 1 {
		fail("cycle threshold %g", c.Timetabling.CycleThreshold)
	}
	if c.Timetabling.TimeLimit < 0 || c.Timetabling.NodeLimit < 0 {
		fail("solver limits %v / %d", c.Timetabling.TimeLimit, c.Timetabling.NodeLimit)
	}
	if c.Timetabling.Epsilon <= 0 {
		fail("epsilon %g", c.Timetabling.Epsilon)
	}
	if c.Timetabling.FixModulo && !c.Timetabling.UseInitialTimetable {
		fail("fix_modulo without use_initial_timetable")
	}
	if _, err = cyclebase.ForName(c.Timetabling.CyclebaseModel); err != nil {
		fail("%v", err)
	}
	if _, err = solver.Lookup(c.Timetabling.Solver); err != nil {
		fail("%v", err)
	}
	if _, err = zerologLevel(c.LogLevel); err != nil {
		fail("%v", err)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(bad, "; "))
	}

	return c.checkCombinations(freq, change, headway)
}

func (c Config) checkCombinations(freq eanbuild.FrequencyModel, change ean.ChangeModel, headway ean.HeadwayModel) error {
	if freq == eanbuild.Multiplicity && (change != ean.ChangeSimple || headway != ean.HeadwaySimple) {
		return fmt.Errorf("%w: frequency model MULTIPLICITY with change model %s and headway model %s",
			ErrUnsupported, c.EAN.ChangeModel, c.EAN.HeadwayModel)
	}
	switch timetabling.LinearModel(strings.ToUpper(c.Timetabling.LinearModel)) {
	case timetabling.PESP:
	case timetabling.CPF:
		if change == ean.ChangeLCMSimplification {
			return fmt.Errorf("%w: linear model CPF with change model LCM_SIMPLIFICATION", ErrUnsupported)
		}
	default:
		return fmt.Errorf("%w: linear model %q", ErrUnsupported, c.Timetabling.LinearModel)
	}
	switch timetabling.ObjectiveModel(strings.ToUpper(c.Timetabling.ObjectiveModel)) {
	case timetabling.Slack, timetabling.TravelingTime:
	default:
		return fmt.Errorf("%w: objective model %q", ErrUnsupported, c.Timetabling.ObjectiveModel)
	}
	w := c.weightOptions()
	if _, err := passenger.NewWeigher(nil, w); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return nil
}

func (c Config) frequencyModel() (eanbuild.FrequencyModel, error) {
	switch strings.ToUpper(c.EAN.FrequencyModel) {
	case "MULTIPLICITY":
		return eanbuild.Multiplicity, nil
	case "ATTRIBUTE":
		return eanbuild.Attribute, nil
	}

	return 0, fmt.Errorf("frequency model %q", c.EAN.FrequencyModel)
}

func (c Config) changeModel() (ean.ChangeModel, error) {
	switch strings.ToUpper(c.EAN.ChangeModel) {
	case "SIMPLE":
		return ean.ChangeSimple, nil
	case "LCM_SIMPLIFICATION":
		return ean.ChangeLCMSimplification, nil
	}

	return 0, fmt.Errorf("change model %q", c.EAN.ChangeModel)
}

func (c Config) headwayModel() (ean.HeadwayModel, error) {
	switch strings.ToUpper(c.EAN.HeadwayModel) {
	case "SIMPLE":
		return ean.HeadwaySimple, nil
	case "PRODUCT_OF_FREQUENCIES":
		return ean.HeadwayProductOfFrequencies, nil
	case "LCM_OF_FREQUENCIES":
		return ean.HeadwayLCMOfFrequencies, nil
	case "LCM_REPRESENTATION":
		return ean.HeadwayLCMRepresentation, nil
	}

	return 0, fmt.Errorf("headway model %q", c.EAN.HeadwayModel)
}

// DatasetOptions converts the dataset section.
func (c Config) DatasetOptions() []dataset.Option {
	var opts []dataset.Option
	if c.Dataset.DirectedLinks {
		opts = append(opts, dataset.WithDirectedLinks())
	}
	if c.Dataset.DirectedLines {
		opts = append(opts, dataset.WithDirectedLines())
	}
	if c.Dataset.Geographic {
		opts = append(opts, dataset.WithGeographicCoordinates())
	}

	return opts
}

// EANOptions converts the network generation section.
func (c Config) EANOptions() ([]eanbuild.Option, error) {
	freq, err := c.frequencyModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	change, err := c.changeModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	headway, err := c.headwayModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	opts := []eanbuild.Option{
		eanbuild.WithFrequencyModel(freq),
		eanbuild.WithChangeModel(change),
		eanbuild.WithHeadwayModel(headway),
		eanbuild.WithWaitBounds(c.EAN.MinWait, c.EAN.MaxWait),
		eanbuild.WithMinChange(c.EAN.MinChange),
	}
	if c.EAN.Turnarounds {
		opts = append(opts, eanbuild.WithTurnarounds(c.EAN.MinTurnaround))
	}
	if !c.EAN.Changes {
		opts = append(opts, eanbuild.WithoutChanges())
	}
	if !c.EAN.Headways {
		opts = append(opts, eanbuild.WithoutHeadways())
	}
	if c.EAN.LateAlignment {
		opts = append(opts, eanbuild.WithLateAlignment())
	}

	return opts, nil
}

// NetworkOptions returns the change and headway models a stored EAN is read
// under, so it is interpreted the way EANOptions would have built it.
func (c Config) NetworkOptions() ([]ean.Option, error) {
	change, err := c.changeModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	headway, err := c.headwayModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return []ean.Option{ean.WithChangeModel(change), ean.WithHeadwayModel(headway)}, nil
}

func (c Config) weightOptions() passenger.WeightOptions {
	return passenger.WeightOptions{
		Drive:            passenger.DriveModel(strings.ToUpper(c.Passengers.DriveModel)),
		Wait:             passenger.WaitModel(strings.ToUpper(c.Passengers.WaitModel)),
		Change:           passenger.ChangeModel(strings.ToUpper(c.Passengers.ChangeModel)),
		ChangePenalty:    c.Passengers.ChangePenalty,
		Expression:       c.Passengers.ChangeExpression,
		UseTimetable:     c.Passengers.UseTimetable,
		CacheAssumptions: c.Passengers.CacheAssumptions,
	}
}

// PassengerOptions converts the routing section.
func (c Config) PassengerOptions() []passenger.Option {
	opts := []passenger.Option{
		passenger.WithWeights(c.weightOptions()),
		passenger.WithODValidation(od.ValidateOptions{
			Symmetric: c.Passengers.SymmetricOD,
			Complete:  c.Passengers.CompleteOD,
			Epsilon:   1e-9,
		}),
	}
	if c.Passengers.Workers > 0 {
		opts = append(opts, passenger.WithWorkers(c.Passengers.Workers))
	}

	return opts
}

// TimetablingOptions converts the optimisation section.
func (c Config) TimetablingOptions() ([]timetabling.Option, error) {
	basis, err := cyclebase.ForName(c.Timetabling.CyclebaseModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	opts := []timetabling.Option{
		timetabling.WithModel(timetabling.LinearModel(strings.ToUpper(c.Timetabling.LinearModel))),
		timetabling.WithObjective(timetabling.ObjectiveModel(strings.ToUpper(c.Timetabling.ObjectiveModel))),
		timetabling.WithCycleBasis(&cyclebase.Memoized{Builder: basis}),
		timetabling.WithThreshold(c.Timetabling.CycleThreshold),
		timetabling.WithSolverName(c.Timetabling.Solver),
		timetabling.WithParams(solver.Params{
			TimeLimit: c.Timetabling.TimeLimit,
			NodeLimit: c.Timetabling.NodeLimit,
		}),
		timetabling.WithEpsilon(c.Timetabling.Epsilon),
	}
	if c.Timetabling.UseInitialTimetable {
		opts = append(opts, timetabling.WithInitialTimetable(c.Timetabling.FixModulo))
	}

	return opts, nil
}
