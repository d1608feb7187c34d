package tckedit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture returns n streamlines along x. Streamline i lies at y=i and has
// i%5+2 points, so its length is i%5+1.
func fixture(n int) []tck.Streamline {
	return fixtureFrom(0, n)
}

func fixtureFrom(first, n int) []tck.Streamline {
	out := make([]tck.Streamline, n)
	for i := range out {
		id := first + i
		for j := 0; j < id%5+2; j++ {
			out[i].Points = append(out[i].Points, tck.Point{X: float64(j), Y: float64(id)})
		}
	}
	return out
}

func writeTracks(t *testing.T, path string, props tck.Properties, tracks []tck.Streamline) {
	t.Helper()
	w, err := tck.Create(path, props)
	require.NoError(t, err)
	for i := range tracks {
		require.NoError(t, w.Write(&tracks[i]))
	}
	require.NoError(t, w.Close())
}

func readTracks(t *testing.T, path string) (tck.Properties, []tck.Streamline) {
	t.Helper()
	r, err := tck.Open(path)
	require.NoError(t, err)
	defer r.Close()
	var tracks []tck.Streamline
	for {
		s, err := r.Next()
		if err != nil {
			break
		}
		tracks = append(tracks, s)
	}
	return r.Properties, tracks
}

func ids(tracks []tck.Streamline) []int {
	out := make([]int, len(tracks))
	for i, s := range tracks {
		out[i] = int(s.Points[0].Y)
	}
	return out
}

var byID = cmpopts.SortSlices(func(a, b tck.Streamline) bool {
	if a.Points[0].Y != b.Points[0].Y {
		return a.Points[0].Y < b.Points[0].Y
	}
	return len(a.Points) < len(b.Points)
})

func stepProps() tck.Properties {
	props := tck.NewProperties()
	props.Set(tck.KeyStepSize, "1")
	props.AddComment("generated for tests")
	return props
}

func assertAccounted(t *testing.T, s Stats) {
	t.Helper()
	assert.Equal(t, s.Read, s.Written+s.Skipped+s.Rejected(), "%+v", s)
}

func testConfig(dir string, inputs ...string) Config {
	cfg := DefaultConfig()
	cfg.Inputs = inputs
	cfg.Output = filepath.Join(dir, "out.tck")
	return cfg
}

func TestEdit_CopiesEverything(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.tck"), filepath.Join(dir, "b.tck")
	writeTracks(t, a, stepProps(), fixtureFrom(0, 30))
	writeTracks(t, b, stepProps(), fixtureFrom(30, 20))

	cfg := testConfig(dir, a, b)
	cfg.Workers = 4
	cfg.BatchSize = 3
	stats, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 50, Accepted: 50, Written: 50}, stats)

	props, got := readTracks(t, cfg.Output)
	want := append(fixtureFrom(0, 30), fixtureFrom(30, 20)...)
	if diff := cmp.Diff(want, got, byID); diff != "" {
		t.Errorf("unexpected streamlines (-want +got):\n%s", diff)
	}
	count, _ := props.Get(tck.KeyCount)
	assert.Equal(t, "0000000050", count)
	assert.Equal(t, []string{"generated for tests"}, props.Comments)
}

func TestEdit_WorkerCountIndependence(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(500))

	run := func(workers int) []tck.Streamline {
		cfg := testConfig(dir, in)
		cfg.Output = filepath.Join(dir, fmt.Sprintf("out-%d.tck", workers))
		cfg.Workers = workers
		cfg.BatchSize = 7
		cfg.MinLength = 2
		cfg.MaxLength = 4
		cfg.Upsample = 3
		cfg.MaxPoints = 8
		cfg.TruncatePolicy = "decimate"
		cfg.Exclude = []string{`{"shape":"box","min":[-1,100,-1],"max":[10,199.5,1]}`}
		stats, err := Edit(context.Background(), cfg, nil)
		require.NoError(t, err)
		assertAccounted(t, stats)
		// 300 pass the length filter, 60 of those sit inside the box
		assert.Equal(t, 240, stats.Written)
		_, tracks := readTracks(t, cfg.Output)
		return tracks
	}
	one, four := run(1), run(4)
	require.Len(t, four, len(one))
	if diff := cmp.Diff(one, four, byID); diff != "" {
		t.Errorf("worker count changed the output (-1 +4):\n%s", diff)
	}
	for _, s := range one {
		assert.LessOrEqual(t, len(s.Points), 8)
		assert.Equal(t, 0.0, s.Points[0].X)
	}
}

func TestEdit_SkipNumber(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(20))

	cfg := testConfig(dir, in)
	cfg.Workers = 1
	cfg.Skip = 10
	cfg.Number = 5
	stats, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 20, Accepted: 20, Skipped: 15, Written: 5}, stats)
	_, got := readTracks(t, cfg.Output)
	assert.Equal(t, []int{10, 11, 12, 13, 14}, ids(got))

	cfg.Number = 0
	stats, err = Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 20, Accepted: 20, Skipped: 10, Written: 10}, stats)
	_, got = readTracks(t, cfg.Output)
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, ids(got))
}

func TestEdit_EarlyStop(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(2000))

	cfg := testConfig(dir, in)
	cfg.Workers = 4
	cfg.BatchSize = 2
	cfg.QueueDepth = 1
	cfg.Number = 3
	stats, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)
	assert.LessOrEqual(t, stats.Read, 2000)
	assertAccounted(t, stats)

	props, got := readTracks(t, cfg.Output)
	assert.Len(t, got, 3)
	count, _ := props.Get(tck.KeyCount)
	assert.Equal(t, "0000000003", count)
}

func TestEdit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(100))

	cfg := testConfig(dir, in)
	cfg.MinLength = 2
	cfg.MaxLength = 4
	cfg.Include = []string{"0,50,0,30"}
	first, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotZero(t, first.Rejected())

	again := cfg
	again.Inputs = []string{cfg.Output}
	again.Output = filepath.Join(dir, "again.tck")
	second, err := Edit(context.Background(), again, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Rejected())
	assert.Equal(t, first.Written, second.Written)

	_, a := readTracks(t, cfg.Output)
	_, b := readTracks(t, again.Output)
	if diff := cmp.Diff(a, b, byID); diff != "" {
		t.Errorf("second edit changed the output (-first +second):\n%s", diff)
	}
}

func TestEdit_Header(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.tck"), filepath.Join(dir, "b.tck")
	pa := stepProps()
	pa.Set("method", "iFOD2")
	pa.ROIs = []tck.ROISpec{{Type: "seed", Spec: "wm.mif"}}
	pb := stepProps()
	pb.Set("method", "SD_Stream")
	pb.AddComment("second")
	writeTracks(t, a, pa, fixture(10))
	writeTracks(t, b, pb, fixture(5))

	cfg := testConfig(dir, a, b)
	cfg.Upsample = 2
	cfg.Downsample = 5
	cfg.MinLength = 1.5
	cfg.Exclude = []string{"0,3,0,0.5"}
	stats, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)

	props, got := readTracks(t, cfg.Output)
	assert.Len(t, got, stats.Written)
	get := func(k string) string {
		v, _ := props.Get(k)
		return v
	}
	assert.Equal(t, tck.Variable, get("method"))
	assert.Equal(t, "1", get(tck.KeyStepSize))
	assert.Equal(t, "2.5", get(tck.KeyOutputStepSize))
	assert.Equal(t, "1.5", get(KeyMinDist))
	assert.Equal(t, "2", get(KeyUpsampleRatio))
	assert.Equal(t, "5", get(KeyDownsampleRatio))
	assert.Equal(t, fmt.Sprintf("%010d", stats.Written), get(tck.KeyCount))
	assert.Equal(t, []string{"generated for tests", "second"}, props.Comments)
	assert.Equal(t, []tck.ROISpec{{Type: "exclude", Spec: "0,3,0,0.5"}}, props.ROIs)
	for _, s := range got {
		assert.Equal(t, 0.0, s.Points[0].X, "first point kept")
	}
}

func TestEdit_Weights(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(10))
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("%d.5", i))
	}
	weightsIn := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(weightsIn, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	cfg := testConfig(dir, in)
	cfg.Workers = 1
	cfg.MinLength = 4
	cfg.WeightsIn = weightsIn
	cfg.WeightsOut = filepath.Join(dir, "out.txt")
	stats, err := Edit(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Written)

	b, err := os.ReadFile(cfg.WeightsOut)
	require.NoError(t, err)
	assert.Equal(t, "3.5\n4.5\n8.5\n9.5\n", string(b))
}

func TestEdit_ConfigErrorsCreateNoOutput(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.tck"), filepath.Join(dir, "b.tck")
	writeTracks(t, a, stepProps(), fixture(4))
	writeTracks(t, b, stepProps(), fixture(4))
	threeWeights := filepath.Join(dir, "three.txt")
	require.NoError(t, os.WriteFile(threeWeights, []byte("1\n2\n3\n"), 0644))

	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"weights with two inputs", func(c *Config) {
			c.Inputs = []string{a, b}
			c.WeightsIn = threeWeights
		}},
		{"weights count mismatch", func(c *Config) {
			c.WeightsIn = threeWeights
		}},
		{"invalid roi", func(c *Config) {
			c.Include = []string{"1,2"}
		}},
		{"output is input", func(c *Config) {
			c.Output = a
		}},
		{"bad ratio", func(c *Config) {
			c.Downsample = 0
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := testConfig(dir, a)
			cfg.Output = filepath.Join(dir, strings.ReplaceAll(c.name, " ", "_")+".tck")
			c.modify(&cfg)
			_, err := Edit(context.Background(), cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
			if cfg.Output != a {
				_, statErr := os.Stat(cfg.Output)
				assert.True(t, os.IsNotExist(statErr), "output must not be created")
			}
		})
	}
}

func TestEdit_InputErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tck")
	writeTracks(t, good, stepProps(), fixture(4))
	truncated := filepath.Join(dir, "truncated.tck")
	writeTracks(t, truncated, stepProps(), fixture(4))
	info, err := os.Stat(truncated)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(truncated, info.Size()-6))

	cfg := testConfig(dir, good, truncated)
	cfg.Workers, cfg.BatchSize = 1, 1
	_, err = Edit(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, tck.ErrTruncated), "got %v", err)
	assert.False(t, errors.Is(err, ErrConfig))
	assertUnfinished(t, cfg.Output)

	cfg = testConfig(dir, filepath.Join(dir, "missing.tck"))
	_, err = Edit(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfig))
}

// assertUnfinished checks that path holds no end marker and no header count.
func assertUnfinished(t *testing.T, path string) {
	t.Helper()
	r, err := tck.Open(path)
	require.NoError(t, err)
	defer r.Close()
	count, _ := r.Properties.Get(tck.KeyCount)
	assert.Equal(t, "0000000000", count)
	for err == nil {
		_, err = r.Next()
	}
	assert.True(t, errors.Is(err, tck.ErrTruncated), "got %v", err)
}

func TestEdit_CanceledLeavesOutputUnfinished(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tck")
	writeTracks(t, in, stepProps(), fixture(50))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig(dir, in)
	_, err := Edit(ctx, cfg, nil)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assertUnfinished(t, cfg.Output)
}
