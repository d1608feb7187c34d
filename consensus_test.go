package tckedit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type header struct {
	values   map[string]string
	comments []string
	rois     []tck.ROISpec
}

func (h header) properties() tck.Properties {
	props := tck.NewProperties()
	for k, v := range h.values {
		props.Set(k, v)
	}
	for _, c := range h.comments {
		props.AddComment(c)
	}
	props.ROIs = h.rois
	return props
}

func TestBuildConsensus(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.tck"), filepath.Join(dir, "b.tck")
	writeTracks(t, a, header{
		values:   map[string]string{"step_size": "0.5", "method": "iFOD2", "total_count": "1000"},
		comments: []string{"shared", "only a"},
		rois:     []tck.ROISpec{{Type: "seed", Spec: "wm.mif"}},
	}.properties(), fixture(100))
	writeTracks(t, b, header{
		values:   map[string]string{"step_size": "0.5", "method": "FACT", "total_count": "500", "lmax": "8"},
		comments: []string{"only b", "shared"},
	}.properties(), fixture(50))

	c, err := BuildConsensus([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 150, c.Count)
	assert.True(t, c.CountKnown)
	assert.Equal(t, 1500, c.TotalCount)
	assert.Equal(t, 2, c.Inputs)

	get := func(k string) string {
		v, _ := c.Properties.Get(k)
		return v
	}
	assert.Equal(t, "0.5", get("step_size"))
	assert.Equal(t, tck.Variable, get("method"))
	assert.Equal(t, "8", get("lmax"))
	assert.Equal(t, "1500", get(tck.KeyTotalCount))
	_, hasCount := c.Properties.Get(tck.KeyCount)
	assert.False(t, hasCount)
	assert.Equal(t, []string{"shared", "only a", "only b"}, c.Properties.Comments)
	assert.Empty(t, c.Properties.ROIs)
}

func TestBuildConsensus_VariableIsTerminal(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, method := range []string{"A", "B", "A"} {
		p := filepath.Join(dir, string(rune('a'+i))+".tck")
		writeTracks(t, p, header{values: map[string]string{"method": method}}.properties(), fixture(1))
		paths = append(paths, p)
	}
	c, err := BuildConsensus(paths)
	require.NoError(t, err)
	v, _ := c.Properties.Get("method")
	assert.Equal(t, tck.Variable, v)
	_, hasTotal := c.Properties.Get(tck.KeyTotalCount)
	assert.False(t, hasTotal)
}

// rawHeader writes a header-only track file whose body starts at byte 256.
func rawHeader(t *testing.T, path string, lines ...string) {
	t.Helper()
	h := tck.Magic + "\n" + strings.Join(lines, "\n") + "\ndatatype: Float32LE\nfile: . 256\nEND\n"
	b := make([]byte, 256)
	copy(b, h)
	require.NoError(t, os.WriteFile(path, b, 0644))
}

func TestBuildConsensus_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.tck")
	rawHeader(t, bad, "count: many")
	_, err := BuildConsensus([]string{bad})
	assert.True(t, errors.Is(err, tck.ErrMalformedHeader), "got %v", err)

	_, err = BuildConsensus([]string{filepath.Join(dir, "missing.tck")})
	assert.Error(t, err)

	uncounted := filepath.Join(dir, "uncounted.tck")
	rawHeader(t, uncounted, "step_size: 1")
	c, err := BuildConsensus([]string{uncounted})
	require.NoError(t, err)
	assert.False(t, c.CountKnown)
	assert.Zero(t, c.Count)
}

func TestApplyEditOptions(t *testing.T) {
	props := tck.NewProperties()
	props.ROIs = []tck.ROISpec{{Type: "seed", Spec: "old.mif"}}
	cfg := DefaultConfig()
	cfg.MinLength = 10
	cfg.MaxLength = 200.5
	cfg.Upsample = 3
	cfg.MaxPoints = 50
	cfg.TruncatePolicy = "decimate"
	cfg.Include = []string{"1,2,3,4", "0,0,0,1"}
	cfg.Exclude = []string{`{"shape":"box","min":[0,0,0],"max":[1,1,1]}`}
	cfg.OrderedInclude = true
	ApplyEditOptions(&props, cfg)

	want := map[string]string{
		KeyMinDist:        "10",
		KeyMaxDist:        "200.5",
		KeyUpsampleRatio:  "3",
		KeyMaxNumPoints:   "50",
		KeyTruncatePolicy: "decimate",
		KeyROIOrdered:     "true",
	}
	for k, v := range want {
		got, ok := props.Get(k)
		assert.True(t, ok, k)
		assert.Equal(t, v, got, k)
	}
	_, ok := props.Get(KeyDownsampleRatio)
	assert.False(t, ok)
	assert.Equal(t, []tck.ROISpec{
		{Type: "include", Spec: "1,2,3,4"},
		{Type: "include", Spec: "0,0,0,1"},
		{Type: "exclude", Spec: cfg.Exclude[0]},
	}, props.ROIs)

	empty := tck.NewProperties()
	ApplyEditOptions(&empty, DefaultConfig())
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.ROIs)
}

func TestUpdateOutputStepSize(t *testing.T) {
	cases := []struct {
		name     string
		values   map[string]string
		up, down int
		want     string
	}{
		{"unchanged", map[string]string{"step_size": "1"}, 1, 1, ""},
		{"from step size", map[string]string{"step_size": "1"}, 2, 1, "0.5"},
		{"from output step size", map[string]string{"step_size": "1", "output_step_size": "2"}, 1, 3, "6"},
		{"both ratios", map[string]string{"step_size": "0.5"}, 2, 4, "1"},
		{"no step size", map[string]string{}, 2, 1, "0"},
		{"variable base", map[string]string{"output_step_size": tck.Variable, "step_size": "1"}, 2, 1, "0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			props := header{values: c.values}.properties()
			UpdateOutputStepSize(&props, c.up, c.down)
			got, _ := props.Get(tck.KeyOutputStepSize)
			if c.want == "" {
				assert.Equal(t, c.values[tck.KeyOutputStepSize], got)
				return
			}
			assert.Equal(t, c.want, got)
		})
	}
}
