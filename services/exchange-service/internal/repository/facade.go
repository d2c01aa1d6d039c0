// Package repository is the query facade over the durable metadata graph.
// It is the single I/O dependency of the context builder.
package repository

import (
	"context"
	"errors"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
)

var (
	// ErrNotFound: no active entity with that GUID.
	ErrNotFound = errors.New("entity not found")
	// ErrProxyOnly: only a proxy is stored locally; the full record is
	// homed elsewhere in the cohort.
	ErrProxyOnly = errors.New("entity is stored as a proxy only")
	// ErrUnauthorized: the caller may not read this instance.
	ErrUnauthorized = errors.New("not authorized to read instance")
)

// Facade reads entities and relationships. Relationships returns only
// active instances touching the entity, ordered stably, paged by
// startFrom/pageSize (pageSize <= 0 selects the implementation default).
type Facade interface {
	Entity(ctx context.Context, guid string) (*omrs.Entity, error)
	Relationships(ctx context.Context, entityGUID, relationshipType string, startFrom, pageSize int) ([]omrs.Relationship, error)
}
