package osio

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nxadm/tail"
	"github.com/pkg/errors"
)

// ErrWeightCount is returned when a weights file and its track file disagree
// on the number of streamlines.
var ErrWeightCount = errors.New("weights do not match streamline count")

// WeightReader reads per-streamline weights from a text file. Values are
// separated by whitespace or newlines; blank lines and lines starting with #
// are ignored.
type WeightReader struct {
	Path string

	t       *tail.Tail
	pending []string
	read    int
	done    bool
}

// OpenWeights opens path for reading.
func OpenWeights(path string) (*WeightReader, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open weights file %s", path)
	}
	return &WeightReader{
		Path: path,
		t:    t,
	}, nil
}

// Next returns the next weight, or io.EOF when the file is exhausted.
func (w *WeightReader) Next() (float64, error) {
	for len(w.pending) == 0 {
		if w.done {
			return 0, io.EOF
		}
		line, ok := <-w.t.Lines
		if !ok {
			w.done = true
			if err := w.t.Wait(); err != nil {
				return 0, errors.Wrapf(err, "error reading weights file %s", w.Path)
			}
			return 0, io.EOF
		}
		if line.Err != nil {
			return 0, errors.Wrapf(line.Err, "error reading weights file %s", w.Path)
		}
		text := strings.TrimSpace(line.Text)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		w.pending = strings.Fields(text)
	}
	field := w.pending[0]
	w.pending = w.pending[1:]
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid weight %q in %s", field, w.Path)
	}
	w.read++
	return v, nil
}

// Count returns the number of weights returned so far.
func (w *WeightReader) Count() int {
	return w.read
}

// Close stops reading. Lines still queued by the reader are discarded.
func (w *WeightReader) Close() error {
	w.t.Kill(nil)
	for range w.t.Lines {
	}
	w.done = true
	return nil
}

// CountWeights returns the number of weights stored in path.
func CountWeights(path string) (int, error) {
	w, err := OpenWeights(path)
	if err != nil {
		return 0, err
	}
	defer w.Close()
	for {
		_, err := w.Next()
		if err == io.EOF {
			return w.Count(), nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// WeightWriter writes one weight per line.
type WeightWriter struct {
	Path string

	f *os.File
	w *bufio.Writer
}

// CreateWeights truncates or creates path.
func CreateWeights(path string) (*WeightWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create weights file %s", path)
	}
	return &WeightWriter{
		Path: path,
		f:    f,
		w:    bufio.NewWriter(f),
	}, nil
}

// Write appends v.
func (w *WeightWriter) Write(v float64) error {
	if _, err := w.w.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + "\n"); err != nil {
		return errors.Wrapf(err, "could not write to %s", w.Path)
	}
	return nil
}

// Close flushes and closes the file.
func (w *WeightWriter) Close() error {
	err := w.w.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "could not close %s", w.Path)
}
