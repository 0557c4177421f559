// Package dataset loads the vehicle table from CSV files, HTTP, Postgres
// or Neo4j.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/WessleyAI/mpg-narrative/engine/aggregate"
	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

// Source produces raw vehicle rows.
type Source interface {
	Load(ctx context.Context) ([]domain.RawRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]domain.RawRecord, error)

func (f SourceFunc) Load(ctx context.Context) ([]domain.RawRecord, error) { return f(ctx) }

// Dataset is the immutable table the explorer runs on.
type Dataset struct {
	Records []domain.RawRecord
	// Makes lists manufacturers in first-seen order.
	Makes []string
}

// ErrEmpty is returned when a source yields no rows.
var ErrEmpty = errors.New("dataset is empty")

// Load reads src and validates every row. All failures wrap
// domain.ErrDatasetLoad.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetLoad, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetLoad, ErrEmpty)
	}
	for i, r := range records {
		if err := domain.ValidateRecord(r); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", domain.ErrDatasetLoad, i+1, err)
		}
	}
	return &Dataset{Records: records, Makes: aggregate.Manufacturers(records)}, nil
}

// Engine builds an aggregation engine over the dataset.
func (d *Dataset) Engine() *aggregate.Engine { return aggregate.NewEngine(d.Makes, d.Records) }

// FileSource reads a local CSV file.
type FileSource struct{ Path string }

func (s FileSource) Load(context.Context) ([]domain.RawRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	recs, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", s.Path, err)
	}
	return recs, nil
}

// Options tunes sources built by Open.
type Options struct {
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// Attempts is the number of HTTP fetch attempts.
	Attempts int
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open picks a source from a location string:
//
//	http(s)://host/cars.csv                    HTTPSource
//	postgres://user:pw@host/db?table=vehicles  PostgresSource
//	neo4j://user:pw@host:7687?label=Vehicle    Neo4jSource (also bolt://)
//	file:///path/cars.csv or a plain path      FileSource
func Open(location string, opts Options) (Source, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return FileSource{Path: location}, nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return FileSource{Path: u.Path}, nil
	case "http", "https":
		return NewHTTPSource(location, opts), nil
	case "postgres", "postgresql":
		q := u.Query()
		table := q.Get("table")
		q.Del("table")
		u.RawQuery = q.Encode()
		src := NewPostgresSource(u.String(), table)
		if !identifier.MatchString(src.Table) {
			return nil, fmt.Errorf("dataset: invalid table name %q", src.Table)
		}
		return src, nil
	case "neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc":
		src := &Neo4jSource{Label: u.Query().Get("label"), Database: u.Query().Get("db")}
		if u.User != nil {
			src.User = u.User.Username()
			src.Password, _ = u.User.Password()
		}
		u.User = nil
		u.RawQuery = ""
		src.URI = u.String()
		return src, nil
	default:
		return nil, fmt.Errorf("dataset: unsupported scheme %q", u.Scheme)
	}
}
