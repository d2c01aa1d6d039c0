// Package omrs models the instance-change notifications exchanged across an
// open-metadata repository cohort, and the entity/relationship records they
// carry.
package omrs

type InstanceCategory string

const (
	CategoryEntity       InstanceCategory = "entity"
	CategoryRelationship InstanceCategory = "relationship"
)

const StatusActive = "ACTIVE"

// InstanceSummary is the minimal view the translation path needs from a
// payload. Both full entities and proxies implement it, so classification
// logic is written once instead of per payload variant.
type InstanceSummary interface {
	InstanceGUID() string
	InstanceTypeName() string
	DisplayName() string
}

// Classification is a named attachment of extra properties to an entity.
type Classification struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Entity is a full entity record: identity, type, properties and
// classifications.
type Entity struct {
	GUID                 string           `json:"guid"`
	TypeName             string           `json:"typeName"`
	MetadataCollectionID string           `json:"metadataCollectionId"`
	Status               string           `json:"status,omitempty"`
	CreatedBy            string           `json:"createdBy,omitempty"`
	UpdatedBy            string           `json:"updatedBy,omitempty"`
	Version              int64            `json:"version,omitempty"`
	Properties           map[string]any   `json:"properties,omitempty"`
	Classifications      []Classification `json:"classifications,omitempty"`
}

func (e *Entity) InstanceGUID() string     { return e.GUID }
func (e *Entity) InstanceTypeName() string { return e.TypeName }

// DisplayName resolves a human-readable name: displayName, then name, then
// qualifiedName, then the GUID.
func (e *Entity) DisplayName() string {
	return displayName(e.Properties, e.GUID)
}

func (e *Entity) QualifiedName() string {
	return stringProperty(e.Properties, "qualifiedName")
}

func (e *Entity) StringProperty(key string) string {
	return stringProperty(e.Properties, key)
}

func (e *Entity) BoolProperty(key string) bool {
	v, _ := e.Properties[key].(bool)
	return v
}

// IntProperty reads an integer property. JSON decoding yields float64 for
// numbers, so both representations are accepted.
func (e *Entity) IntProperty(key string) int {
	switch v := e.Properties[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Classification returns the named classification, if attached.
func (e *Entity) Classification(name string) (Classification, bool) {
	for _, c := range e.Classifications {
		if c.Name == name {
			return c, true
		}
	}
	return Classification{}, false
}

// EntityProxy is a partial entity record: identity and type only, used when
// the full record is homed elsewhere in the cohort.
type EntityProxy struct {
	GUID                 string         `json:"guid"`
	TypeName             string         `json:"typeName"`
	MetadataCollectionID string         `json:"metadataCollectionId,omitempty"`
	UniqueProperties     map[string]any `json:"uniqueProperties,omitempty"`
}

func (p *EntityProxy) InstanceGUID() string     { return p.GUID }
func (p *EntityProxy) InstanceTypeName() string { return p.TypeName }

func (p *EntityProxy) DisplayName() string {
	return displayName(p.UniqueProperties, p.GUID)
}

// Relationship is a typed edge between two entities, carried with proxies for
// both ends.
type Relationship struct {
	GUID                 string         `json:"guid"`
	TypeName             string         `json:"typeName"`
	MetadataCollectionID string         `json:"metadataCollectionId"`
	Status               string         `json:"status,omitempty"`
	CreatedBy            string         `json:"createdBy,omitempty"`
	UpdatedBy            string         `json:"updatedBy,omitempty"`
	Version              int64          `json:"version,omitempty"`
	Properties           map[string]any `json:"properties,omitempty"`
	EndOne               EntityProxy    `json:"endOne"`
	EndTwo               EntityProxy    `json:"endTwo"`
}

func (r *Relationship) InstanceGUID() string     { return r.GUID }
func (r *Relationship) InstanceTypeName() string { return r.TypeName }

func (r *Relationship) DisplayName() string {
	return displayName(r.Properties, r.GUID)
}

func (r *Relationship) StringProperty(key string) string {
	return stringProperty(r.Properties, key)
}

func displayName(props map[string]any, guid string) string {
	for _, key := range []string{"displayName", "name", "qualifiedName"} {
		if v := stringProperty(props, key); v != "" {
			return v
		}
	}
	return guid
}

func stringProperty(props map[string]any, key string) string {
	v, _ := props[key].(string)
	return v
}
