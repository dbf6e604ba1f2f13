package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedInput marks an export that cannot be parsed or lacks a
// required column.
var ErrMalformedInput = errors.New("malformed input")

// Export column names.
const (
	ColTradeNo   = "Trade #"
	ColType      = "Type"
	ColSignal    = "Signal"
	ColDateTime  = "Date/Time"
	ColPrice     = "Price USD"
	ColContracts = "Contracts"
	ColProfit    = "Profit USD"
)

// RequiredColumns must be present in every export header.
var RequiredColumns = []string{ColType, ColDateTime, ColContracts, ColProfit}

// Frame is a parsed export: the header and each row keyed by column name.
type Frame struct {
	Columns []string
	Rows    []map[string]string
}

// ReadFile parses the export at path.
func ReadFile(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	frame, err := ReadFrame(f)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// ReadFrame parses an export from r. A leading UTF-8 byte order mark is
// ignored.
func ReadFrame(r io.Reader) (Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Frame{}, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Frame{}, fmt.Errorf("%w: empty file", ErrMalformedInput)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Frame{}, fmt.Errorf("%w: missing columns %s", ErrMalformedInput, strings.Join(missing, ", "))
	}

	frame := Frame{Columns: header}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Frame{}, fmt.Errorf("%w: line %d: %w", ErrMalformedInput, line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}
