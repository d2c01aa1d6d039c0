package typeoracle

import (
	"context"

	"github.com/metabridge-io/metabridge/libs/db"
)

// Registry is a Postgres-backed oracle over the type_defs table
// (name, super_type). The supertype chain is walked in SQL with a recursive
// CTE; depth is bounded to guard against malformed registrations.
type Registry struct {
	pool *db.Pool
}

func NewRegistry(pool *db.Pool) *Registry {
	return &Registry{pool: pool}
}

func (r *Registry) IsSubtypeOf(ctx context.Context, _, typeName, referenceTypeName string) (bool, error) {
	if typeName == "" || referenceTypeName == "" {
		return false, nil
	}
	if typeName == referenceTypeName {
		return true, nil
	}

	var isSubtype bool
	err := r.pool.QueryRow(ctx, `
		WITH RECURSIVE chain AS (
			SELECT name, super_type, 1 AS depth
			FROM type_defs
			WHERE name = $1
			UNION ALL
			SELECT t.name, t.super_type, c.depth + 1
			FROM type_defs t
			JOIN chain c ON t.name = c.super_type
			WHERE c.depth < $3
		)
		SELECT EXISTS (SELECT 1 FROM chain WHERE name = $2)
	`, typeName, referenceTypeName, maxTypeDepth).Scan(&isSubtype)
	if err != nil {
		return false, err
	}
	return isSubtype, nil
}
