package repo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jRepo reads nodes with a single label and maps them to T.
type Neo4jRepo[T any] struct {
	driver     neo4j.DriverWithContext
	label      string
	database   string
	fromRecord func(*neo4j.Record) (T, error)
	newSession func(ctx context.Context) runner // for testing
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any] func(*Neo4jRepo[T])

// WithDatabase selects a named database (default: server default).
func WithDatabase[T any](name string) Neo4jOption[T] {
	return func(r *Neo4jRepo[T]) { r.database = name }
}

// NewNeo4jRepo creates a repository over nodes labelled label. fromRecord
// receives records whose "n" key holds the node.
func NewNeo4jRepo[T any](
	driver neo4j.DriverWithContext,
	label string,
	fromRecord func(*neo4j.Record) (T, error),
	opts ...Neo4jOption[T],
) *Neo4jRepo[T] {
	r := &Neo4jRepo[T]{driver: driver, label: label, fromRecord: fromRecord}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ Lister[any] = (*Neo4jRepo[any])(nil)

// neo4jSessionAdapter adapts neo4j.SessionWithContext to the runner interface.
type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (r *Neo4jRepo[T]) session(ctx context.Context) runner {
	if r.newSession != nil {
		return r.newSession(ctx)
	}
	return &neo4jSessionAdapter{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})}
}

// match builds the MATCH/WHERE prefix. Property names are validated since
// Cypher cannot parameterise them.
func (r *Neo4jRepo[T]) match(where map[string]any) (string, map[string]any, error) {
	if !identifier.MatchString(r.label) {
		return "", nil, fmt.Errorf("repo: invalid label %q", r.label)
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		if !identifier.MatchString(k) {
			return "", nil, fmt.Errorf("repo: invalid property %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(map[string]any, len(where))
	conds := make([]string, 0, len(keys))
	for i, k := range keys {
		p := fmt.Sprintf("w%d", i)
		conds = append(conds, fmt.Sprintf("n.%s = $%s", k, p))
		params[p] = where[k]
	}
	cypher := fmt.Sprintf("MATCH (n:%s)", r.label)
	if len(conds) > 0 {
		cypher += " WHERE " + strings.Join(conds, " AND ")
	}
	return cypher, params, nil
}

// List returns one page of nodes.
func (r *Neo4jRepo[T]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	cypher, params, err := r.match(opts.Where)
	if err != nil {
		return nil, err
	}
	if opts.OrderBy != "" {
		if !identifier.MatchString(opts.OrderBy) {
			return nil, fmt.Errorf("repo: invalid order property %q", opts.OrderBy)
		}
		cypher += " RETURN n ORDER BY n." + opts.OrderBy
	} else {
		cypher += " RETURN n ORDER BY id(n)"
	}
	cypher += " SKIP $offset LIMIT $limit"

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	params["offset"] = opts.Offset
	params["limit"] = limit

	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("repo: list %s: %w", r.label, err)
	}
	var items []T
	for res.Next(ctx) {
		item, err := r.fromRecord(res.Record())
		if err != nil {
			return nil, fmt.Errorf("repo: decode %s: %w", r.label, err)
		}
		items = append(items, item)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("repo: list %s: %w", r.label, err)
	}
	return items, nil
}

// All pages through every matching node.
func (r *Neo4jRepo[T]) All(ctx context.Context, where map[string]any, pageSize int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var out []T
	for offset := 0; ; offset += pageSize {
		page, err := r.List(ctx, ListOpts{Offset: offset, Limit: pageSize, Where: where})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

// Count returns the number of matching nodes.
func (r *Neo4jRepo[T]) Count(ctx context.Context, where map[string]any) (int64, error) {
	cypher, params, err := r.match(where)
	if err != nil {
		return 0, err
	}
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher+" RETURN count(n) AS c", params)
	if err != nil {
		return 0, fmt.Errorf("repo: count %s: %w", r.label, err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return 0, fmt.Errorf("repo: count %s: %w", r.label, err)
		}
		return 0, nil
	}
	v, _ := res.Record().Get("c")
	n, _ := v.(int64)
	return n, nil
}
