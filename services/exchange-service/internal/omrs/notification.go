package omrs

import (
	"encoding/json"
	"fmt"
)

// Kind is the semantic tag of an instance-change notification. Exactly one
// kind applies per notification.
type Kind string

const (
	KindNew          Kind = "new"
	KindRefresh      Kind = "refresh"
	KindUpdated      Kind = "updated"
	KindClassified   Kind = "classified"
	KindDeclassified Kind = "declassified"
	KindReclassified Kind = "reclassified"
	KindDeleted      Kind = "deleted"
	KindPurged       Kind = "purged"
	KindReIdentified Kind = "re-identified"
	KindReTyped      Kind = "re-typed"
	KindReHomed      Kind = "re-homed"
)

var knownKinds = map[Kind]struct{}{
	KindNew: {}, KindRefresh: {}, KindUpdated: {},
	KindClassified: {}, KindDeclassified: {}, KindReclassified: {},
	KindDeleted: {}, KindPurged: {},
	KindReIdentified: {}, KindReTyped: {}, KindReHomed: {},
}

// Notification is one raw repository change event as delivered by the cohort
// topic. Entity notifications carry either a full Entity or an EntityProxy;
// relationship notifications carry a Relationship.
type Notification struct {
	Kind                 Kind             `json:"kind"`
	Category             InstanceCategory `json:"category"`
	SourceName           string           `json:"sourceName"`
	MetadataCollectionID string           `json:"metadataCollectionId,omitempty"`
	OriginServerName     string           `json:"originServerName,omitempty"`
	OriginServerType     string           `json:"originServerType,omitempty"`
	OriginOrganization   string           `json:"originOrganization,omitempty"`

	Entity       *Entity       `json:"entity,omitempty"`
	EntityProxy  *EntityProxy  `json:"entityProxy,omitempty"`
	Relationship *Relationship `json:"relationship,omitempty"`

	// ClassificationName is set for classified/declassified/reclassified
	// entity notifications.
	ClassificationName string `json:"classificationName,omitempty"`
}

// Decode parses and validates a notification from its wire payload.
func Decode(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (n Notification) Validate() error {
	if _, ok := knownKinds[n.Kind]; !ok {
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	switch n.Category {
	case CategoryEntity:
		if n.Entity == nil && n.EntityProxy == nil {
			return fmt.Errorf("entity notification %q has no entity payload", n.Kind)
		}
		if n.Relationship != nil {
			return fmt.Errorf("entity notification %q carries a relationship payload", n.Kind)
		}
	case CategoryRelationship:
		if n.Relationship == nil {
			return fmt.Errorf("relationship notification %q has no relationship payload", n.Kind)
		}
		if n.Entity != nil || n.EntityProxy != nil {
			return fmt.Errorf("relationship notification %q carries an entity payload", n.Kind)
		}
	default:
		return fmt.Errorf("unknown instance category %q", n.Category)
	}
	if (n.Kind == KindDeclassified || n.Kind == KindReclassified) && n.ClassificationName == "" {
		return fmt.Errorf("%s notification is missing the classification name", n.Kind)
	}
	return nil
}

// Summary resolves the affected instance view regardless of payload variant.
// A full entity wins over a proxy when both are present.
func (n Notification) Summary() (InstanceSummary, error) {
	switch {
	case n.Entity != nil:
		return n.Entity, nil
	case n.EntityProxy != nil:
		return n.EntityProxy, nil
	case n.Relationship != nil:
		return n.Relationship, nil
	default:
		return nil, fmt.Errorf("notification %q has no payload", n.Kind)
	}
}

// Contributor resolves the user to credit for this change: updatedBy, falling
// back to createdBy. Proxy-only payloads carry neither and yield "".
func (n Notification) Contributor() string {
	if n.Entity == nil {
		return ""
	}
	if n.Entity.UpdatedBy != "" {
		return n.Entity.UpdatedBy
	}
	return n.Entity.CreatedBy
}
