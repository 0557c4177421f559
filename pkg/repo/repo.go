// Package repo defines read-side repository interfaces and a generic
// Neo4j implementation.
package repo

import "context"

// Lister pages through stored entities.
type Lister[T any] interface {
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Count(ctx context.Context, where map[string]any) (int64, error)
}

// ListOpts controls pagination and filtering for List operations. Where
// matches node properties by equality; OrderBy names a property.
type ListOpts struct {
	Offset  int
	Limit   int
	Where   map[string]any
	OrderBy string
}

// DefaultPageSize is used when ListOpts.Limit is not positive.
const DefaultPageSize = 500
