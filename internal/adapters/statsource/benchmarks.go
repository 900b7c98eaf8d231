package statsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// BenchmarkHeader is the required CSV header, in any column order.
var BenchmarkHeader = []string{"player_id", "team", "position", "raw_value", "adjusted_value", "sample_size"}

// ReadBenchmarks parses reference benchmark rows for a period. Blank lines
// and lines starting with '#' are ignored. Any malformed record fails the
// whole read with its line number.
func ReadBenchmarks(r io.Reader, p model.Period) ([]model.ReferenceBenchmarkRow, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidCSV, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range BenchmarkHeader {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, h)
		}
	}

	var out []model.ReferenceBenchmarkRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		line, _ := reader.FieldPos(0)
		if len(rec) < len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrInvalidCSV, line, len(rec), len(header))
		}
		field := func(name string) string { return strings.TrimSpace(rec[col[name]]) }

		pos, err := model.ParsePosition(field("position"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidCSV, line, err)
		}
		row := model.ReferenceBenchmarkRow{
			PlayerID:    field("player_id"),
			Team:        strings.ToUpper(field("team")),
			Position:    pos,
			Season:      p.Season,
			ThroughWeek: p.ThroughWeek,
		}
		if row.PlayerID == "" {
			return nil, fmt.Errorf("%w: line %d: empty player_id", ErrInvalidCSV, line)
		}
		for name, dst := range map[string]*float64{
			"raw_value":      &row.RawValue,
			"adjusted_value": &row.AdjustedValue,
			"sample_size":    &row.SampleSize,
		} {
			v, err := strconv.ParseFloat(field(name), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %w", ErrInvalidCSV, line, name, err)
			}
			*dst = v
		}
		out = append(out, row)
	}
	return out, nil
}

// WriteBenchmarks renders rows in the ReadBenchmarks format.
func WriteBenchmarks(w io.Writer, rows []model.ReferenceBenchmarkRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BenchmarkHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.PlayerID,
			r.Team,
			string(r.Position),
			strconv.FormatFloat(r.RawValue, 'f', -1, 64),
			strconv.FormatFloat(r.AdjustedValue, 'f', -1, 64),
			strconv.FormatFloat(r.SampleSize, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
