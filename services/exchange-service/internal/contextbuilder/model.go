// Package contextbuilder reconstructs denormalized projections of the
// metadata graph: given a table, walk the fixed relationship chain up to the
// endpoint serving it; given its columns, decorate each with keys, nullability
// and assigned business terms.
package contextbuilder

import "fmt"

// Relationship type names for each hop of the context chain. End one is
// always the owning/parent side, end two the owned/child side.
const (
	relAttributeForSchema      = "AttributeForSchema"
	relSchemaAttributeType     = "SchemaAttributeType"
	relAssetSchemaType         = "AssetSchemaType"
	relDataContentForDataset   = "DataContentForDataset"
	relConnectionToAsset       = "ConnectionToAsset"
	relConnectionToEndpoint    = "ConnectionToEndpoint"
	relConnectionConnectorType = "ConnectionConnectorType"
	relSemanticAssignment      = "SemanticAssignment"
	relForeignKey              = "ForeignKey"
)

const classificationPrimaryKey = "PrimaryKey"

// HopError is the hard failure for a mandatory hop: the expected
// relationship was absent or its far end could not be resolved.
type HopError struct {
	EntityGUID       string
	RelationshipType string
	Err              error
}

func (e *HopError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("context hop %s from entity %s failed: %v", e.RelationshipType, e.EntityGUID, e.Err)
	}
	return fmt.Sprintf("no %s relationship found for entity %s", e.RelationshipType, e.EntityGUID)
}

func (e *HopError) Unwrap() error { return e.Err }

type Endpoint struct {
	GUID     string `json:"guid"`
	Address  string `json:"address"`
	Protocol string `json:"protocol,omitempty"`
}

type ConnectorType struct {
	GUID                       string `json:"guid"`
	ConnectorProviderClassName string `json:"connectorProviderClassName"`
}

type Connection struct {
	GUID          string        `json:"guid"`
	DisplayName   string        `json:"displayName"`
	Endpoint      Endpoint      `json:"endpoint"`
	ConnectorType ConnectorType `json:"connectorType"`
}

type Database struct {
	GUID        string `json:"guid"`
	DisplayName string `json:"displayName"`
}

type DeployedSchema struct {
	GUID        string `json:"guid"`
	DisplayName string `json:"displayName"`
}

// TableContext is the full projection for one table: where it lives and how
// to reach it. Assembled bottom-up, immutable once returned.
type TableContext struct {
	TableGUID      string         `json:"tableGuid"`
	TableName      string         `json:"tableName"`
	SchemaTypeGUID string         `json:"schemaTypeGuid"`
	Schema         DeployedSchema `json:"schema"`
	Database       Database       `json:"database"`
	Connection     Connection     `json:"connection"`
}

type BusinessTerm struct {
	GUID          string `json:"guid"`
	DisplayName   string `json:"displayName"`
	QualifiedName string `json:"qualifiedName,omitempty"`
}

type ForeignKey struct {
	Name                 string `json:"name,omitempty"`
	ReferencedColumnGUID string `json:"referencedColumnGuid"`
	ReferencedColumnName string `json:"referencedColumnName"`
}

// TableColumn is one decorated column. The declared data type is structural;
// everything else is best-effort annotation and stays zero-valued when the
// graph has nothing to say.
type TableColumn struct {
	GUID           string        `json:"guid"`
	DisplayName    string        `json:"displayName"`
	Position       int           `json:"position"`
	DataType       string        `json:"dataType"`
	PrimaryKey     bool          `json:"primaryKey"`
	PrimaryKeyName string        `json:"primaryKeyName,omitempty"`
	Nullable       bool          `json:"nullable"`
	Unique         bool          `json:"unique"`
	BusinessTerm   *BusinessTerm `json:"businessTerm,omitempty"`
	ForeignKey     *ForeignKey   `json:"foreignKey,omitempty"`
}

type TableSummary struct {
	GUID        string `json:"guid"`
	DisplayName string `json:"displayName"`
}
