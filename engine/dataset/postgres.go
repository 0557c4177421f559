package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

// DefaultTable is the Postgres table read when none is configured.
const DefaultTable = "vehicles"

// PostgresSource reads rows from a table with the columns make, fuel,
// engine_cylinders, average_city_mpg and average_highway_mpg.
type PostgresSource struct {
	DSN   string
	Table string
}

// NewPostgresSource creates a source; an empty table means DefaultTable.
func NewPostgresSource(dsn, table string) *PostgresSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{DSN: dsn, Table: table}
}

func (s *PostgresSource) query() string {
	return fmt.Sprintf(
		"SELECT make, fuel, engine_cylinders, average_city_mpg, average_highway_mpg FROM %s",
		s.Table)
}

func (s *PostgresSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	if !identifier.MatchString(s.Table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", s.Table)
	}
	db, err := sql.Open("postgres", s.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	rows, err := db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", s.Table, err)
	}
	defer rows.Close()

	var out []domain.RawRecord
	for rows.Next() {
		var r domain.RawRecord
		if err := rows.Scan(&r.Make, &r.Fuel, &r.EngineCylinders, &r.AverageCityMPG, &r.AverageHighwayMPG); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return out, nil
}
