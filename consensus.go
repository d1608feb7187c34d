package tckedit

import (
	"strconv"
	"strings"

	"github.com/jbvmio/tckedit/driver"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// Header keys describing the edit that produced a file.
const (
	KeyMinDist         = `min_dist`
	KeyMaxDist         = `max_dist`
	KeyUpsampleRatio   = `upsample_ratio`
	KeyDownsampleRatio = `downsample_ratio`
	KeyMaxNumPoints    = `max_num_points`
	KeyTruncatePolicy  = `truncate_policy`
	KeyROIOrdered      = `roi_ordered`
)

// Consensus is the header merged from every input.
type Consensus struct {
	Properties tck.Properties
	// Count is the sum of the input counts, an estimate used for progress only.
	Count int
	// CountKnown is set when every input declared a count.
	CountKnown bool
	// TotalCount is the sum of the input total_count entries.
	TotalCount int
	// Inputs is the number of headers merged.
	Inputs int
}

type headerCounts struct {
	count, total       int
	hasCount, hasTotal bool
}

// BuildConsensus reads the header of every path, without reading any
// streamlines, and merges them. Values that differ between inputs become
// tck.Variable. Input ROIs are dropped.
func BuildConsensus(paths []string) (Consensus, error) {
	c := Consensus{
		Properties: tck.NewProperties(),
		CountKnown: len(paths) > 0,
	}
	var hasTotal bool
	for _, path := range paths {
		props, err := tck.ReadHeader(path)
		if err != nil {
			return Consensus{}, err
		}
		n, err := c.merge(props)
		if err != nil {
			return Consensus{}, errors.Wrapf(err, "%s", path)
		}
		c.Count += n.count
		c.CountKnown = c.CountKnown && n.hasCount
		if n.hasTotal {
			c.TotalCount += n.total
			hasTotal = true
		}
		c.Inputs++
	}
	if hasTotal {
		c.Properties.Set(tck.KeyTotalCount, strconv.Itoa(c.TotalCount))
	}
	return c, nil
}

func (c *Consensus) merge(props tck.Properties) (headerCounts, error) {
	var n headerCounts
	for _, cm := range props.Comments {
		c.Properties.AddComment(cm)
	}
	for _, k := range props.Keys() {
		v, _ := props.Get(k)
		switch k {
		case tck.KeyCount:
			count, err := parseCount(k, v)
			if err != nil {
				return n, err
			}
			n.count, n.hasCount = count, true
			continue
		case tck.KeyTotalCount:
			total, err := parseCount(k, v)
			if err != nil {
				return n, err
			}
			n.total, n.hasTotal = total, true
			continue
		}
		existing, ok := c.Properties.Get(k)
		switch {
		case !ok:
			c.Properties.Set(k, v)
		case existing != v:
			c.Properties.Set(k, tck.Variable)
		}
	}
	return n, nil
}

func parseCount(key, value string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 {
		return 0, errors.Wrapf(tck.ErrMalformedHeader, "invalid %s %q", key, value)
	}
	return int(f), nil
}

// ApplyEditOptions records the edit described by cfg in props. Any ROIs
// already in props are replaced by those of cfg.
func ApplyEditOptions(props *tck.Properties, cfg Config) {
	format := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if cfg.MinLength > 0 {
		props.Set(KeyMinDist, format(cfg.MinLength))
	}
	if cfg.MaxLength > 0 {
		props.Set(KeyMaxDist, format(cfg.MaxLength))
	}
	if cfg.Upsample > 1 {
		props.Set(KeyUpsampleRatio, strconv.Itoa(cfg.Upsample))
	}
	if cfg.Downsample > 1 {
		props.Set(KeyDownsampleRatio, strconv.Itoa(cfg.Downsample))
	}
	if cfg.MaxPoints > 0 {
		props.Set(KeyMaxNumPoints, strconv.Itoa(cfg.MaxPoints))
		policy, err := driver.ParsePolicy(cfg.TruncatePolicy)
		if err == nil {
			props.Set(KeyTruncatePolicy, string(policy))
		}
	}
	props.ROIs = nil
	for _, s := range cfg.Include {
		props.ROIs = append(props.ROIs, tck.ROISpec{Type: `include`, Spec: s})
	}
	for _, s := range cfg.Exclude {
		props.ROIs = append(props.ROIs, tck.ROISpec{Type: `exclude`, Spec: s})
	}
	if cfg.OrderedInclude && len(cfg.Include) > 1 {
		props.Set(KeyROIOrdered, `true`)
	}
}

// UpdateOutputStepSize scales the declared step size by down/up. Nothing
// changes when both ratios are 1. The base is output_step_size when present,
// otherwise step_size, otherwise 0; a base that is not a number counts as 0.
func UpdateOutputStepSize(props *tck.Properties, up, down int) {
	if up < 1 {
		up = 1
	}
	if down < 1 {
		down = 1
	}
	if up == 1 && down == 1 {
		return
	}
	base, ok, _ := props.Float(tck.KeyOutputStepSize)
	if !ok {
		base, _, _ = props.Float(tck.KeyStepSize)
	}
	props.Set(tck.KeyOutputStepSize, strconv.FormatFloat(base*float64(down)/float64(up), 'g', -1, 64))
}
