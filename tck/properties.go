package tck

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Reserved header keys.
const (
	KeyCount          = `count`
	KeyTotalCount     = `total_count`
	KeyStepSize       = `step_size`
	KeyOutputStepSize = `output_step_size`
	KeyDataType       = `datatype`
	KeyFile           = `file`
	KeyComment        = `comment`
	KeyROI            = `roi`

	// Variable marks a key whose value differed between merged inputs.
	Variable = `variable`
)

// ROISpec is a region of interest as recorded in a header.
type ROISpec struct {
	Type string // include or exclude
	Spec string
}

// Properties holds the header of a track file.
type Properties struct {
	values   map[string]string
	Comments []string
	ROIs     []ROISpec
}

// NewProperties returns empty Properties.
func NewProperties() Properties {
	return Properties{values: make(map[string]string)}
}

// Get returns the value stored for key.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Set stores value under key.
func (p *Properties) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
}

// Len returns the number of key/value pairs.
func (p *Properties) Len() int {
	return len(p.values)
}

// Keys returns all keys in sorted order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddComment appends c unless an identical comment is already present.
func (p *Properties) AddComment(c string) bool {
	for _, x := range p.Comments {
		if x == c {
			return false
		}
	}
	p.Comments = append(p.Comments, c)
	return true
}

// Float returns the value of key parsed as a float.
// Missing keys return ok=false with a nil error.
func (p *Properties) Float(key string) (v float64, ok bool, err error) {
	s, there := p.values[key]
	if !there {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, errors.Wrapf(err, "invalid value for %s", key)
	}
	return v, true, nil
}
