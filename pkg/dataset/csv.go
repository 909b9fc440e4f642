package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ReadCSV parses x,y rows. A first row whose fields are not numbers is
// treated as a header. Blank lines are skipped by the csv reader.
func ReadCSV(r io.Reader) ([]poly.DataPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var data []poly.DataPoint
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errX != nil || errY != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("dataset: line %d: invalid row %q", line, rec)
		}
		data = append(data, poly.DataPoint{X: x, Y: y})
	}
	return data, nil
}

// WriteCSV writes data with an x,y header.
func WriteCSV(w io.Writer, data []poly.DataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, p := range data {
		rec := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads a CSV file from disk.
func Load(path string) ([]poly.DataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// Save writes data to a CSV file.
func Save(path string, data []poly.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
