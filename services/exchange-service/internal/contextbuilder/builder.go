package contextbuilder

import (
	"context"
	"log/slog"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/repository"
)

// hopScanSize is how many relationships a single-cardinality hop inspects
// when picking its far end. The chain assumes one canonical relationship per
// hop and takes the first match without reconciliation.
const hopScanSize = 100

type Builder struct {
	facade repository.Facade
	logger *slog.Logger
}

func New(facade repository.Facade, logger *slog.Logger) *Builder {
	return &Builder{facade: facade, logger: logger}
}

// TableContext walks the mandatory chain from a table up to its endpoint:
// table -> schema type -> deployed schema -> database -> connection, then
// connection -> endpoint and connection -> connector type. Every hop is
// structural: a missing relationship fails the whole traversal with a
// HopError naming the hop, never a partially filled result.
func (b *Builder) TableContext(ctx context.Context, tableGUID string) (*TableContext, error) {
	table, err := b.facade.Entity(ctx, tableGUID)
	if err != nil {
		return nil, err
	}

	schemaType, err := b.firstParent(ctx, table.GUID, relAttributeForSchema)
	if err != nil {
		return nil, err
	}
	deployedSchema, err := b.firstParent(ctx, schemaType.GUID, relAssetSchemaType)
	if err != nil {
		return nil, err
	}
	database, err := b.firstParent(ctx, deployedSchema.GUID, relDataContentForDataset)
	if err != nil {
		return nil, err
	}
	connection, err := b.firstParent(ctx, database.GUID, relConnectionToAsset)
	if err != nil {
		return nil, err
	}
	endpoint, err := b.firstChild(ctx, connection.GUID, relConnectionToEndpoint)
	if err != nil {
		return nil, err
	}
	connectorType, err := b.firstChild(ctx, connection.GUID, relConnectionConnectorType)
	if err != nil {
		return nil, err
	}

	return &TableContext{
		TableGUID:      table.GUID,
		TableName:      table.DisplayName(),
		SchemaTypeGUID: schemaType.GUID,
		Schema: DeployedSchema{
			GUID:        deployedSchema.GUID,
			DisplayName: deployedSchema.DisplayName(),
		},
		Database: Database{
			GUID:        database.GUID,
			DisplayName: database.DisplayName(),
		},
		Connection: Connection{
			GUID:        connection.GUID,
			DisplayName: connection.DisplayName(),
			Endpoint: Endpoint{
				GUID:     endpoint.GUID,
				Address:  endpoint.StringProperty("networkAddress"),
				Protocol: endpoint.StringProperty("protocol"),
			},
			ConnectorType: ConnectorType{
				GUID:                       connectorType.GUID,
				ConnectorProviderClassName: connectorType.StringProperty("connectorProviderClassName"),
			},
		},
	}, nil
}

// SchemaTables lists the tables of a deployed schema, paged. The hop to the
// schema type is structural; the table fan-out honors startFrom/pageSize.
func (b *Builder) SchemaTables(ctx context.Context, schemaGUID string, startFrom, pageSize int) ([]TableSummary, error) {
	schema, err := b.facade.Entity(ctx, schemaGUID)
	if err != nil {
		return nil, err
	}
	schemaType, err := b.firstChild(ctx, schema.GUID, relAssetSchemaType)
	if err != nil {
		return nil, err
	}

	rels, err := b.facade.Relationships(ctx, schemaType.GUID, relAttributeForSchema, startFrom, pageSize)
	if err != nil {
		return nil, err
	}

	var out []TableSummary
	for _, rel := range rels {
		if rel.EndOne.GUID != schemaType.GUID {
			continue
		}
		table, err := b.facade.Entity(ctx, rel.EndTwo.GUID)
		if err != nil {
			return nil, err
		}
		out = append(out, TableSummary{GUID: table.GUID, DisplayName: table.DisplayName()})
	}
	return out, nil
}

// firstParent resolves the owning side of the first relationship of the
// given type where the entity is the owned end.
func (b *Builder) firstParent(ctx context.Context, fromGUID, relationshipType string) (*omrs.Entity, error) {
	return b.firstFarEnd(ctx, fromGUID, relationshipType, false)
}

// firstChild resolves the owned side of the first relationship of the given
// type where the entity is the owning end.
func (b *Builder) firstChild(ctx context.Context, fromGUID, relationshipType string) (*omrs.Entity, error) {
	return b.firstFarEnd(ctx, fromGUID, relationshipType, true)
}

func (b *Builder) firstFarEnd(ctx context.Context, fromGUID, relationshipType string, fromIsParent bool) (*omrs.Entity, error) {
	rels, err := b.facade.Relationships(ctx, fromGUID, relationshipType, 0, hopScanSize)
	if err != nil {
		return nil, &HopError{EntityGUID: fromGUID, RelationshipType: relationshipType, Err: err}
	}

	for _, rel := range rels {
		var far omrs.EntityProxy
		switch {
		case fromIsParent && rel.EndOne.GUID == fromGUID:
			far = rel.EndTwo
		case !fromIsParent && rel.EndTwo.GUID == fromGUID:
			far = rel.EndOne
		default:
			continue
		}
		entity, err := b.facade.Entity(ctx, far.GUID)
		if err != nil {
			return nil, &HopError{EntityGUID: fromGUID, RelationshipType: relationshipType, Err: err}
		}
		return entity, nil
	}
	return nil, &HopError{EntityGUID: fromGUID, RelationshipType: relationshipType}
}
