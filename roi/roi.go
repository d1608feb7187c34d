// Package roi provides the region-of-interest membership tests used to
// include or exclude streamlines.
package roi

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region is a spatial region with a point membership test. Implementations
// must be safe for concurrent use by multiple workers.
type Region interface {
	Contains(p r3.Vec) bool
	String() string
}

// LoadMask loads file-backed mask regions. It is nil unless an image
// backend has been registered, in which case mask paths become valid specs.
var LoadMask func(path string) (Region, error)

// ErrUnsupported is returned for specs that cannot be turned into a Region.
var ErrUnsupported = errors.New("unsupported roi specification")

// Sphere is an analytic spherical region.
type Sphere struct {
	Centre r3.Vec
	Radius float64
}

// Contains reports whether p lies inside or on the sphere.
func (s Sphere) Contains(p r3.Vec) bool {
	d := r3.Sub(p, s.Centre)
	return r3.Dot(d, d) <= s.Radius*s.Radius
}

func (s Sphere) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", s.Centre.X, s.Centre.Y, s.Centre.Z, s.Radius)
}

// Box is an axis-aligned box region.
type Box struct {
	Min, Max r3.Vec
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b Box) String() string {
	return fmt.Sprintf(`{"shape":"box","min":[%g,%g,%g],"max":[%g,%g,%g]}`,
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Parse converts a spec into a Region. Accepted forms are a comma separated
// sphere `x,y,z,radius`, a JSON object with a `shape` of sphere or box, or a
// mask path when LoadMask is set.
func Parse(spec string) (Region, error) {
	s := strings.TrimSpace(spec)
	switch {
	case s == "":
		return nil, errors.Wrap(ErrUnsupported, "empty spec")
	case strings.HasPrefix(s, "{"):
		return parseJSON(s)
	case looksNumeric(s):
		return parseSphere(s)
	}
	if LoadMask == nil {
		if _, err := os.Stat(s); err != nil {
			return nil, errors.Wrapf(ErrUnsupported, "%q is neither a sphere nor an existing mask", s)
		}
		return nil, errors.Wrapf(ErrUnsupported, "mask images are not supported: %s", s)
	}
	r, err := LoadMask(s)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load mask %s", s)
	}
	return r, nil
}

func looksNumeric(s string) bool {
	first := strings.SplitN(s, ",", 2)[0]
	_, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	return err == nil
}

func parseSphere(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.Wrapf(ErrUnsupported, "sphere %q needs x,y,z,radius", s)
	}
	v := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrUnsupported, "sphere %q: %v", s, err)
		}
		v[i] = f
	}
	if v[3] <= 0 {
		return nil, errors.Wrapf(ErrUnsupported, "sphere %q: radius must be positive", s)
	}
	return Sphere{Centre: r3.Vec{X: v[0], Y: v[1], Z: v[2]}, Radius: v[3]}, nil
}

func parseJSON(s string) (Region, error) {
	if !gjson.Valid(s) {
		return nil, errors.Wrapf(ErrUnsupported, "invalid json %s", s)
	}
	r := gjson.Parse(s)
	switch shape := r.Get("shape").String(); shape {
	case "sphere":
		c, err := vec(r, "centre")
		if err != nil {
			return nil, err
		}
		rad := r.Get("radius")
		if rad.Type != gjson.Number || rad.Float() <= 0 {
			return nil, errors.Wrapf(ErrUnsupported, "sphere needs a positive radius: %s", s)
		}
		return Sphere{Centre: c, Radius: rad.Float()}, nil
	case "box":
		lo, err := vec(r, "min")
		if err != nil {
			return nil, err
		}
		hi, err := vec(r, "max")
		if err != nil {
			return nil, err
		}
		if hi.X < lo.X || hi.Y < lo.Y || hi.Z < lo.Z {
			return nil, errors.Wrapf(ErrUnsupported, "box max below min: %s", s)
		}
		return Box{Min: lo, Max: hi}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "unknown shape %q", shape)
	}
}

func vec(r gjson.Result, path string) (r3.Vec, error) {
	a := r.Get(path).Array()
	if len(a) != 3 {
		return r3.Vec{}, errors.Wrapf(ErrUnsupported, "%s must be an array of three numbers", path)
	}
	for _, x := range a {
		if x.Type != gjson.Number {
			return r3.Vec{}, errors.Wrapf(ErrUnsupported, "%s must be an array of three numbers", path)
		}
	}
	return r3.Vec{X: a[0].Float(), Y: a[1].Float(), Z: a[2].Float()}, nil
}
