package tck

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const countWidth = 10

// ErrCoordinateRange is returned for points that cannot be stored as Float32.
var ErrCoordinateRange = errors.New("coordinate out of float32 range")

// Writer streams streamlines into a new track file. The header count is
// reserved when the file is created and filled in by Close.
type Writer struct {
	Path string

	f           *os.File
	w           *bufio.Writer
	countOffset int64
	count       int
	buf         []byte
	closed      bool
}

// Create truncates or creates path and writes the header for props.
// Any count, datatype or file entries in props are replaced.
func Create(path string, props Properties) (*Writer, error) {
	pre, post, offset, countOffset := formatHeader(props)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "could not create track file")
	}
	w := &Writer{
		Path:        path,
		f:           f,
		w:           bufio.NewWriterSize(f, 64*1024),
		countOffset: int64(countOffset),
		buf:         make([]byte, 12),
	}
	if _, err := fmt.Fprintf(w.w, "%sfile: . %d\n%s", pre, offset, post); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "could not write header to %s", path)
	}
	return w, nil
}

// formatHeader renders the header around the file entry and returns the body
// offset and the byte position of the count digits.
func formatHeader(props Properties) (pre, post string, offset, countOffset int) {
	var b strings.Builder
	b.WriteString(Magic + "\n")
	for _, k := range props.Keys() {
		switch k {
		case KeyCount, KeyDataType, KeyFile:
			continue
		}
		v, _ := props.Get(k)
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	for _, c := range props.Comments {
		fmt.Fprintf(&b, "%s: %s\n", KeyComment, c)
	}
	for _, roi := range props.ROIs {
		fmt.Fprintf(&b, "%s: %s %s\n", KeyROI, roi.Type, roi.Spec)
	}
	fmt.Fprintf(&b, "%s: %s\n", KeyDataType, Float32LE.Name)
	pre = b.String()
	post = fmt.Sprintf("%s: %0*d\nEND\n", KeyCount, countWidth, 0)

	// the offset is self-referential; settle on a value whose digit count is stable
	offset = len(pre) + len(post)
	for {
		n := len(pre) + len(fmt.Sprintf("file: . %d\n", offset)) + len(post)
		if n == offset {
			break
		}
		offset = n
	}
	countOffset = offset - len(post) + len(KeyCount+": ")
	return pre, post, offset, countOffset
}

// Write appends s to the body. Nothing is written when a point does not
// narrow to a finite Float32, since NaN and Inf are the record delimiters.
func (w *Writer) Write(s *Streamline) error {
	if w.closed {
		return errors.Errorf("write to closed track file %s", w.Path)
	}
	for i, p := range s.Points {
		if !finite32(p.X) || !finite32(p.Y) || !finite32(p.Z) {
			return errors.Wrapf(ErrCoordinateRange, "%s: streamline %d point %d (%g, %g, %g)", w.Path, w.count, i, p.X, p.Y, p.Z)
		}
	}
	for _, p := range s.Points {
		if err := w.writeTriple(float32(p.X), float32(p.Y), float32(p.Z)); err != nil {
			return err
		}
	}
	nan := float32(math.NaN())
	if err := w.writeTriple(nan, nan, nan); err != nil {
		return err
	}
	w.count++
	return nil
}

func finite32(v float64) bool {
	f := float64(float32(v))
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (w *Writer) writeTriple(x, y, z float32) error {
	Float32LE.Order.PutUint32(w.buf[0:4], math.Float32bits(x))
	Float32LE.Order.PutUint32(w.buf[4:8], math.Float32bits(y))
	Float32LE.Order.PutUint32(w.buf[8:12], math.Float32bits(z))
	if _, err := w.w.Write(w.buf); err != nil {
		return errors.Wrapf(err, "could not write to %s", w.Path)
	}
	return nil
}

// Count returns the number of streamlines written.
func (w *Writer) Count() int {
	return w.count
}

// Close writes the end marker, finalizes the header count and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	digits := fmt.Sprintf("%0*d", countWidth, w.count)
	var err error
	if len(digits) > countWidth {
		err = errors.Errorf("count %d does not fit the header", w.count)
	}
	if err == nil {
		inf := float32(math.Inf(1))
		err = w.writeTriple(inf, inf, inf)
	}
	if err == nil {
		err = w.w.Flush()
	}
	if err == nil {
		_, err = w.f.WriteAt([]byte(digits), w.countOffset)
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "could not finalize %s", w.Path)
	}
	return nil
}

// Abort flushes what was written and closes the file without the end marker
// or the header count, so readers report the file as truncated.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "could not close %s", w.Path)
	}
	return nil
}
