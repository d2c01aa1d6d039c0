package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/metabridge-io/metabridge/libs/db"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
)

const defaultPageSize = 100

// Postgres serves the facade from the local metadata store
// (metadata_entities, entity_classifications, metadata_relationships).
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Entity(ctx context.Context, guid string) (*omrs.Entity, error) {
	var (
		e       omrs.Entity
		isProxy bool
		props   []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT guid::text, type_name, metadata_collection_id, status,
			created_by, updated_by, version, properties, is_proxy
		FROM metadata_entities
		WHERE guid = $1
	`, guid).Scan(&e.GUID, &e.TypeName, &e.MetadataCollectionID, &e.Status,
		&e.CreatedBy, &e.UpdatedBy, &e.Version, &props, &isProxy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("entity %s: %w", guid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", guid, err)
	}
	if e.Status != omrs.StatusActive {
		return nil, fmt.Errorf("entity %s: %w", guid, ErrNotFound)
	}
	if isProxy {
		return nil, fmt.Errorf("entity %s: %w", guid, ErrProxyOnly)
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &e.Properties); err != nil {
			return nil, fmt.Errorf("entity %s properties: %w", guid, err)
		}
	}

	rows, err := p.pool.Query(ctx, `
		SELECT name, properties
		FROM entity_classifications
		WHERE entity_guid = $1
		ORDER BY name
	`, guid)
	if err != nil {
		return nil, fmt.Errorf("entity %s classifications: %w", guid, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c      omrs.Classification
			cProps []byte
		)
		if err := rows.Scan(&c.Name, &cProps); err != nil {
			return nil, fmt.Errorf("entity %s classifications: %w", guid, err)
		}
		if len(cProps) > 0 {
			if err := json.Unmarshal(cProps, &c.Properties); err != nil {
				return nil, fmt.Errorf("entity %s classification %s: %w", guid, c.Name, err)
			}
		}
		e.Classifications = append(e.Classifications, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("entity %s classifications: %w", guid, rows.Err())
	}
	return &e, nil
}

func (p *Postgres) Relationships(ctx context.Context, entityGUID, relationshipType string, startFrom, pageSize int) ([]omrs.Relationship, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if startFrom < 0 {
		startFrom = 0
	}

	rows, err := p.pool.Query(ctx, `
		SELECT guid::text, type_name, metadata_collection_id, status,
			created_by, updated_by, version, properties,
			end_one_guid::text, end_one_type, end_two_guid::text, end_two_type
		FROM metadata_relationships
		WHERE type_name = $2
			AND status = 'ACTIVE'
			AND (end_one_guid = $1 OR end_two_guid = $1)
		ORDER BY created_at, guid
		OFFSET $3
		LIMIT $4
	`, entityGUID, relationshipType, startFrom, pageSize)
	if err != nil {
		return nil, fmt.Errorf("relationships %s of %s: %w", relationshipType, entityGUID, err)
	}
	defer rows.Close()

	var out []omrs.Relationship
	for rows.Next() {
		var (
			r     omrs.Relationship
			props []byte
		)
		if err := rows.Scan(&r.GUID, &r.TypeName, &r.MetadataCollectionID, &r.Status,
			&r.CreatedBy, &r.UpdatedBy, &r.Version, &props,
			&r.EndOne.GUID, &r.EndOne.TypeName, &r.EndTwo.GUID, &r.EndTwo.TypeName); err != nil {
			return nil, fmt.Errorf("relationships %s of %s: %w", relationshipType, entityGUID, err)
		}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &r.Properties); err != nil {
				return nil, fmt.Errorf("relationship %s properties: %w", r.GUID, err)
			}
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("relationships %s of %s: %w", relationshipType, entityGUID, rows.Err())
	}
	return out, nil
}
