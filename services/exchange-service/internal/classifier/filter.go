// Package classifier routes raw repository notifications onto domain
// outbound events: karma accounting first, then a type gate, then a fixed
// kind mapping.
package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
)

// Filter is the deployment-configured allow-list of interesting types. A
// notification passes the gate when its instance type subtypes any listed
// reference type for its category.
type Filter struct {
	SourceName        string   `yaml:"source_name"`
	EntityTypes       []string `yaml:"entity_types"`
	RelationshipTypes []string `yaml:"relationship_types"`
}

// DefaultFilter covers the community-profile domain this deployment serves.
func DefaultFilter() *Filter {
	return &Filter{
		SourceName: "metabridge",
		EntityTypes: []string{
			"Community",
			"Person",
			"Team",
			"PersonRole",
			"Collection",
			"Comment",
			"InformalTag",
			"Like",
			"Rating",
			"ContactDetails",
		},
		RelationshipTypes: []string{
			"CommunityMembership",
			"TeamMembership",
			"TeamLeadership",
			"AttachedComment",
			"AttachedTag",
			"AttachedLike",
			"AttachedRating",
			"CollectionMembership",
			"ContactThrough",
		},
	}
}

// LoadFilter reads a filter from a YAML file; an empty path yields the
// default filter, and empty file fields fall back to the defaults.
func LoadFilter(path string) (*Filter, error) {
	if path == "" {
		return DefaultFilter(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read type filter: %w", err)
	}
	var f Filter
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse type filter: %w", err)
	}
	defaults := DefaultFilter()
	if f.SourceName == "" {
		f.SourceName = defaults.SourceName
	}
	if len(f.EntityTypes) == 0 {
		f.EntityTypes = defaults.EntityTypes
	}
	if len(f.RelationshipTypes) == 0 {
		f.RelationshipTypes = defaults.RelationshipTypes
	}
	return &f, nil
}

// ReferenceTypes returns the allow-list for the given instance category.
func (f *Filter) ReferenceTypes(category omrs.InstanceCategory) []string {
	if category == omrs.CategoryRelationship {
		return f.RelationshipTypes
	}
	return f.EntityTypes
}
