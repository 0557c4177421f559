package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

// Column names in the published CSV. Matching ignores case, spaces and
// underscores, so "engine_cylinders" also maps to EngineCylinders.
const (
	ColMake    = "Make"
	ColFuel    = "Fuel"
	ColCyl     = "EngineCylinders"
	ColCityMPG = "AverageCityMPG"
	ColHighMPG = "AverageHighwayMPG"
)

var requiredColumns = []string{ColMake, ColFuel, ColCyl, ColCityMPG, ColHighMPG}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// ParseError locates a malformed CSV row.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv: line %d: %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(h)))
}

// ParseCSV decodes vehicle rows. Unknown columns are ignored. Any
// malformed row fails the whole parse.
func ParseCSV(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: errors.New("empty input")}
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	cols := make(map[string]int, len(requiredColumns))
	for _, c := range requiredColumns {
		i, ok := index[normalizeHeader(c)]
		if !ok {
			return nil, &ParseError{Line: 1, Column: c, Err: ErrMissingColumn}
		}
		cols[c] = i
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rec, err := decodeRow(row, cols)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row []string, cols map[string]int) (domain.RawRecord, error) {
	field := func(c string) string { return strings.TrimSpace(row[cols[c]]) }

	cyl, err := parseCylinders(field(ColCyl))
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("%s: %w", ColCyl, err)
	}
	city, err := strconv.ParseFloat(field(ColCityMPG), 64)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("%s: %w", ColCityMPG, err)
	}
	highway, err := strconv.ParseFloat(field(ColHighMPG), 64)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("%s: %w", ColHighMPG, err)
	}
	rec := domain.RawRecord{
		Make:              field(ColMake),
		Fuel:              field(ColFuel),
		EngineCylinders:   cyl,
		AverageCityMPG:    city,
		AverageHighwayMPG: highway,
	}
	if err := domain.ValidateRecord(rec); err != nil {
		return domain.RawRecord{}, err
	}
	return rec, nil
}

// parseCylinders accepts "4" and "4.0" but not "4.5".
func parseCylinders(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}
