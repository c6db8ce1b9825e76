package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/config"
	"github.com/katalvlaran/pesplan/dataset"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/network"
	"github.com/katalvlaran/pesplan/od"
)

// corridorDataset writes stations 1-2-3, line 1 over both links and line 2
// over the first one, which has headway 2, and 10 passengers from 1 to 3.
// extra is appended to the configuration file.
func corridorDataset(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 2, To: 3, LowerBound: 5, UpperBound: 7}))
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, true, 0, []int{1, 2}))
	require.NoError(t, pool.AddFromLinks(2, true, 0, []int{1}))
	require.NoError(t, pool.ApplyConcept(map[int]int{1: 1, 2: 1}))
	m := od.New()
	m.Set(1, 3, 10)

	create := func(name string) *os.File {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		f, err := os.Create(p)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })
		return f
	}
	require.NoError(t, dataset.WritePTN(create(dataset.StopFile), create(dataset.EdgeFile), ptn))
	require.NoError(t, dataset.WriteLineConcept(create(dataset.LineConceptFile), pool))
	require.NoError(t, dataset.WriteOD(create(dataset.ODFile), m))

	cfg := filepath.Join(dir, "pesplan.yaml")
	src := "period: 20\nlog_level: warn\ndataset:\n  directed_lines: true\n" + extra
	require.NoError(t, os.WriteFile(cfg, []byte(src), 0o600))

	return dir
}

func TestApp_Pipeline(t *testing.T) {
	dir := corridorDataset(t, "")
	cfg := filepath.Join(dir, "pesplan.yaml")

	require.NoError(t, newApp().Run([]string{"pesplan", "--config", cfg, "--data", dir, "ean"}))
	d := dataset.Open(dir, dataset.WithDirectedLines())
	assert.True(t, d.Has(dataset.EventsFile))
	assert.False(t, d.Has(dataset.TimetableFile))

	require.NoError(t, newApp().Run([]string{"pesplan", "--config", cfg, "--data", dir, "passengers"}))
	require.NoError(t, newApp().Run([]string{"pesplan", "--config", cfg, "--data", dir, "timetable"}))
	require.True(t, d.Has(dataset.TimetableFile))

	ptn, err := d.PTN()
	require.NoError(t, err)
	pool, err := d.LinePool(ptn)
	require.NoError(t, err)
	net, err := d.EAN(pool, 20)
	require.NoError(t, err)
	require.NoError(t, net.CheckTimetableCompleteness())

	var routed float64
	for _, a := range net.ActivitiesOfType(ean.Drive) {
		routed += a.Passengers
		dur, ok := a.Duration()
		if !ok {
			from, _ := net.Event(a.From)
			to, _ := net.Event(a.To)
			tf, _ := from.Time()
			tt, _ := to.Time()
			dur = ean.Mod(tt-tf, 20)
		}
		assert.GreaterOrEqual(t, float64(dur), a.Lower)
		assert.LessOrEqual(t, float64(dur), a.Upper)
	}
	assert.Equal(t, 20.0, routed, "two drives of line 1 carry the demand")
}

// A stored EAN is read back under the configured change and headway models.
func TestApp_StoredNetworkModels(t *testing.T) {
	cases := []struct {
		name    string
		extra   string
		change  ean.ChangeModel
		headway ean.HeadwayModel
	}{
		{
			name:    "lcm change simplification",
			extra:   "ean:\n  change_model: LCM_SIMPLIFICATION\ntimetabling:\n  linear_model: PESP\n",
			change:  ean.ChangeLCMSimplification,
			headway: ean.HeadwaySimple,
		},
		{
			name:    "lcm headway representation",
			extra:   "ean:\n  headway_model: LCM_REPRESENTATION\n",
			change:  ean.ChangeSimple,
			headway: ean.HeadwayLCMRepresentation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := corridorDataset(t, tc.extra)
			path := filepath.Join(dir, "pesplan.yaml")
			for _, cmd := range []string{"ean", "passengers", "timetable"} {
				require.NoError(t, newApp().Run([]string{"pesplan", "--config", path, "--data", dir, cmd}), cmd)
			}

			cfg, err := config.Load(path)
			require.NoError(t, err)
			s := &session{cfg: cfg, data: dataset.Open(dir, cfg.DatasetOptions()...)}
			net, err := s.network(false)
			require.NoError(t, err)
			assert.Equal(t, tc.change, net.ChangeModel())
			assert.Equal(t, tc.headway, net.HeadwayModel())
			require.NoError(t, net.CheckTimetableCompleteness())

			headways := net.ActivitiesOfType(ean.Headway)
			require.NotEmpty(t, headways)
			for _, a := range headways {
				w := net.Window(a)
				assert.Equal(t, tc.headway == ean.HeadwayLCMRepresentation, w.Residue, "headway %d", a.ID)
			}
		})
	}
}

func TestApp_MissingConfig(t *testing.T) {
	dir := t.TempDir()
	err := newApp().Run([]string{"pesplan", "--config", filepath.Join(dir, "none.yaml"), "--data", dir, "ean"})
	assert.Error(t, err)
}

func TestApp_MissingData(t *testing.T) {
	err := newApp().Run([]string{"pesplan", "--data", t.TempDir(), "timetable"})
	assert.Error(t, err)
}
