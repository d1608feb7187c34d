package tck

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Magic is the first line of every track file.
const Magic = `mrtrix tracks`

// Errors returned while reading track files.
var (
	ErrMalformedHeader = errors.New("malformed track file header")
	ErrTruncated       = errors.New("truncated track file")
)

// DataType describes the on-disk encoding of point coordinates.
type DataType struct {
	Name  string
	Size  int
	Order binary.ByteOrder
}

// Supported DataTypes:
var (
	Float32LE = DataType{Name: `Float32LE`, Size: 4, Order: binary.LittleEndian}
	Float32BE = DataType{Name: `Float32BE`, Size: 4, Order: binary.BigEndian}
	Float64LE = DataType{Name: `Float64LE`, Size: 8, Order: binary.LittleEndian}
	Float64BE = DataType{Name: `Float64BE`, Size: 8, Order: binary.BigEndian}
)

// ParseDataType returns the DataType with the given header name.
func ParseDataType(name string) (DataType, error) {
	for _, dt := range []DataType{Float32LE, Float32BE, Float64LE, Float64BE} {
		if dt.Name == name {
			return dt, nil
		}
	}
	return DataType{}, errors.Wrapf(ErrMalformedHeader, "unsupported datatype %q", name)
}

func (dt DataType) decode(b []byte) float64 {
	if dt.Size == 4 {
		return float64(math.Float32frombits(dt.Order.Uint32(b)))
	}
	return math.Float64frombits(dt.Order.Uint64(b))
}

// Reader streams streamlines from a track file one at a time.
type Reader struct {
	Path       string
	Properties Properties
	DataType   DataType

	f    *os.File
	r    *bufio.Reader
	buf  []byte
	read int
	done bool
}

// Open opens path and parses its header. The body is not read until Next is called.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open track file")
	}
	r := &Reader{
		Path: path,
		f:    f,
		r:    bufio.NewReaderSize(f, 64*1024),
	}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "%s", path)
	}
	return r, nil
}

// ReadHeader returns only the header Properties of the track file at path.
func ReadHeader(path string) (Properties, error) {
	r, err := Open(path)
	if err != nil {
		return Properties{}, err
	}
	defer r.Close()
	return r.Properties, nil
}

func (r *Reader) readHeader() error {
	var consumed int
	readLine := func() (string, error) {
		line, err := r.r.ReadString('\n')
		consumed += len(line)
		if err != nil {
			if err == io.EOF {
				return "", errors.Wrap(ErrMalformedHeader, "missing END")
			}
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	first, err := readLine()
	if err != nil {
		return err
	}
	if first != Magic {
		return errors.Wrapf(ErrMalformedHeader, "unexpected first line %q", first)
	}
	r.Properties = NewProperties()
	offset := -1
	dataType := ""
	for {
		line, err := readLine()
		if err != nil {
			return err
		}
		if line == `END` {
			break
		}
		idx := strings.Index(line, ":")
		if idx < 1 {
			return errors.Wrapf(ErrMalformedHeader, "invalid header line %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		switch key {
		case KeyDataType:
			dataType = value
		case KeyFile:
			offset, err = parseFileOffset(value)
			if err != nil {
				return err
			}
		case KeyComment:
			r.Properties.Comments = append(r.Properties.Comments, value)
		case KeyROI:
			parts := strings.SplitN(value, " ", 2)
			if len(parts) != 2 {
				return errors.Wrapf(ErrMalformedHeader, "invalid roi line %q", line)
			}
			r.Properties.ROIs = append(r.Properties.ROIs, ROISpec{Type: parts[0], Spec: strings.TrimSpace(parts[1])})
		default:
			r.Properties.Set(key, value)
		}
	}
	if dataType == "" {
		return errors.Wrap(ErrMalformedHeader, "missing datatype")
	}
	if r.DataType, err = ParseDataType(dataType); err != nil {
		return err
	}
	if offset < 0 {
		return errors.Wrap(ErrMalformedHeader, "missing file offset")
	}
	if offset < consumed {
		return errors.Wrapf(ErrMalformedHeader, "data offset %d lies inside header (%d bytes)", offset, consumed)
	}
	if _, err := r.r.Discard(offset - consumed); err != nil {
		return errors.Wrap(ErrTruncated, "data offset beyond end of file")
	}
	r.buf = make([]byte, 3*r.DataType.Size)
	return nil
}

// parseFileOffset parses the value of a `file: . <offset>` line.
func parseFileOffset(value string) (int, error) {
	fields := strings.Fields(value)
	if len(fields) != 2 || fields[0] != "." {
		return 0, errors.Wrapf(ErrMalformedHeader, "unsupported file entry %q", value)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrMalformedHeader, "invalid data offset %q", fields[1])
	}
	return n, nil
}

// Next returns the next streamline, or io.EOF once the end-of-file marker is reached.
func (r *Reader) Next() (Streamline, error) {
	if r.done {
		return Streamline{}, io.EOF
	}
	var pts []Point
	for {
		p, err := r.readPoint()
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Streamline{}, errors.Wrapf(ErrTruncated, "%s: after %d streamlines", r.Path, r.read)
			}
			return Streamline{}, errors.Wrapf(err, "%s", r.Path)
		}
		switch {
		case math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z):
			r.read++
			return Streamline{Points: pts}, nil
		case math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0):
			r.done = true
			if len(pts) > 0 {
				return Streamline{}, errors.Wrapf(ErrTruncated, "%s: unterminated streamline before end marker", r.Path)
			}
			return Streamline{}, io.EOF
		}
		pts = append(pts, p)
	}
}

func (r *Reader) readPoint() (Point, error) {
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return Point{}, err
	}
	n := r.DataType.Size
	return Point{
		X: r.DataType.decode(r.buf[0:n]),
		Y: r.DataType.decode(r.buf[n : 2*n]),
		Z: r.DataType.decode(r.buf[2*n : 3*n]),
	}, nil
}

// Count returns the number of streamlines returned so far.
func (r *Reader) Count() int {
	return r.read
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
