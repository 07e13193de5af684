package model

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FieldReader is just a simple reader for basic file formats.
type FieldReader struct {
	Pos    int
	Fields []string
}

// NewFieldReader constructs a new field reader around the given data
func NewFieldReader(data string) *FieldReader {
	return &FieldReader{0, strings.Fields(data)}
}

// Read returns the next space-delimited field/token
func (fr *FieldReader) Read() (string, error) {
	if fr.Pos >= len(fr.Fields) {
		return "", io.EOF
	}
	p := fr.Pos
	fr.Pos++
	return fr.Fields[p], nil
}

// ReadInt reads the next token as an int
func (fr *FieldReader) ReadInt() (int, error) {
	s, err := fr.Read()
	if err != nil {
		return 0, err
	}

	i, err := strconv.ParseInt(s, 10, 0)
	return int(i), err
}

// ReadFloat reads the next token as a float
func (fr *FieldReader) ReadFloat() (float64, error) {
	s, err := fr.Read()
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(s, 64)
}

// Preprocessor for text sample files: remove lines that are blank or
// comments (starting with 'c' or '#'). Return the new buffer and the count of
// "real" lines found.
func preprocess(data []byte) (string, int) {
	lines := strings.Split(string(data), "\n")

	newPos := 0
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if len(ln) < 1 || ln[0] == 'c' || ln[0] == '#' {
			continue // Empty or comment: skip
		}
		lines[newPos] = ln
		newPos++
	}

	return strings.Join(lines[:newPos], "\n"), newPos
}

// ReadSampleMatrix reads posterior samples from the plain text format that
// sampling tools commonly dump: a header line "rows cols" followed by rows*cols
// whitespace separated values in row-major order. Row i is parameter vector i.
func ReadSampleMatrix(data []byte) ([][]float64, error) {
	text, lineCount := preprocess(data)
	if lineCount < 1 {
		return nil, errors.Errorf("No lines found in sample data")
	}

	fr := NewFieldReader(text)

	rows, err := fr.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "Error reading sample row count")
	}
	cols, err := fr.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "Error reading sample column count")
	}
	if rows < 1 || cols < 1 {
		return nil, errors.Errorf("Invalid sample matrix shape %dx%d", rows, cols)
	}

	if remain := len(fr.Fields) - fr.Pos; remain != rows*cols {
		return nil, errors.Errorf("Sample matrix %dx%d needs %d values, found %d", rows, cols, rows*cols, remain)
	}

	samples := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		samples[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			samples[i][j], err = fr.ReadFloat()
			if err != nil {
				return nil, errors.Wrapf(err, "Error reading sample %d param %d", i, j)
			}
		}
	}

	return samples, nil
}

// ReadVector reads a whitespace separated list of floats (e.g. a deviance
// column). Comment lines are skipped as in ReadSampleMatrix.
func ReadVector(data []byte) ([]float64, error) {
	text, _ := preprocess(data)
	fr := NewFieldReader(text)

	out := make([]float64, 0, len(fr.Fields))
	for i := range fr.Fields {
		v, err := fr.ReadFloat()
		if err != nil {
			return nil, errors.Wrapf(err, "Error reading value %d", i)
		}
		out = append(out, v)
	}

	return out, nil
}
