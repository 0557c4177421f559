package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/pkg/repo"
)

// DefaultLabel is the node label read when none is configured.
const DefaultLabel = "Vehicle"

// Neo4jSource reads vehicle nodes whose properties use the snake_case
// column names (make, fuel, engine_cylinders, ...).
type Neo4jSource struct {
	URI      string
	User     string
	Password string
	Label    string
	Database string
	PageSize int
}

// nodeReader is the part of repo.Neo4jRepo the source needs.
type nodeReader interface {
	All(ctx context.Context, where map[string]any, pageSize int) ([]domain.RawRecord, error)
	Count(ctx context.Context, where map[string]any) (int64, error)
}

func (s *Neo4jSource) label() string {
	if s.Label == "" {
		return DefaultLabel
	}
	return s.Label
}

func (s *Neo4jSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	driver, err := neo4j.NewDriverWithContext(s.URI, neo4j.BasicAuth(s.User, s.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: connect: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j: verify: %w", err)
	}
	return s.read(ctx, repo.NewNeo4jRepo(driver, s.label(), vehicleFromRecord,
		repo.WithDatabase[domain.RawRecord](s.Database)))
}

// read counts the label first so an empty graph fails without paging.
func (s *Neo4jSource) read(ctx context.Context, r nodeReader) ([]domain.RawRecord, error) {
	n, err := r.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("neo4j: count: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("neo4j: no %s nodes: %w", s.label(), ErrEmpty)
	}
	recs, err := r.All(ctx, nil, s.PageSize)
	if err != nil {
		return nil, fmt.Errorf("neo4j: %w", err)
	}
	if int64(len(recs)) != n {
		slog.Warn("neo4j: node count changed while paging", "label", s.label(), "counted", n, "read", len(recs))
	}
	return recs, nil
}

func vehicleFromRecord(rec *neo4j.Record) (domain.RawRecord, error) {
	v, ok := rec.Get("n")
	if !ok {
		return domain.RawRecord{}, errors.New("record has no node")
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return domain.RawRecord{}, fmt.Errorf("unexpected %T", v)
	}
	p := node.Props
	out := domain.RawRecord{}
	var err error
	if out.Make, err = stringProp(p, "make"); err != nil {
		return out, err
	}
	if out.Fuel, err = stringProp(p, "fuel"); err != nil {
		return out, err
	}
	cyl, err := numberProp(p, "engine_cylinders")
	if err != nil {
		return out, err
	}
	if cyl != float64(int(cyl)) {
		return out, fmt.Errorf("engine_cylinders: not a whole number: %v", cyl)
	}
	out.EngineCylinders = int(cyl)
	if out.AverageCityMPG, err = numberProp(p, "average_city_mpg"); err != nil {
		return out, err
	}
	if out.AverageHighwayMPG, err = numberProp(p, "average_highway_mpg"); err != nil {
		return out, err
	}
	return out, nil
}

func stringProp(p map[string]any, key string) (string, error) {
	s, ok := p[key].(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", key, p[key])
	}
	return s, nil
}

// numberProp accepts Neo4j integers and floats.
func numberProp(p map[string]any, key string) (float64, error) {
	switch v := p[key].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("%s: expected number, got %T", key, p[key])
	}
}
