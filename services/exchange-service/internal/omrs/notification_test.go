package omrs

import "testing"

func TestDecodeEntityNotification(t *testing.T) {
	payload := []byte(`{
		"kind": "updated",
		"category": "entity",
		"sourceName": "metabridge",
		"entity": {
			"guid": "e-1",
			"typeName": "GlossaryTerm",
			"metadataCollectionId": "mc-1",
			"status": "ACTIVE",
			"createdBy": "alice",
			"updatedBy": "bob",
			"version": 3,
			"properties": {"displayName": "Churn Rate", "qualifiedName": "terms.churn.rate"}
		}
	}`)

	n, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n.Kind != KindUpdated || n.Category != CategoryEntity {
		t.Fatalf("kind/category mismatch: %q %q", n.Kind, n.Category)
	}
	if n.Entity == nil || n.Entity.GUID != "e-1" {
		t.Fatalf("entity payload not decoded: %+v", n.Entity)
	}
	if got := n.Contributor(); got != "bob" {
		t.Fatalf("Contributor = %q, want bob", got)
	}

	summary, err := n.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.InstanceGUID() != "e-1" || summary.InstanceTypeName() != "GlossaryTerm" {
		t.Fatalf("summary mismatch: %q %q", summary.InstanceGUID(), summary.InstanceTypeName())
	}
	if summary.DisplayName() != "Churn Rate" {
		t.Fatalf("DisplayName = %q", summary.DisplayName())
	}
}

func TestDecodeRelationshipNotification(t *testing.T) {
	payload := []byte(`{
		"kind": "new",
		"category": "relationship",
		"sourceName": "metabridge",
		"relationship": {
			"guid": "r-1",
			"typeName": "SemanticAssignment",
			"metadataCollectionId": "mc-1",
			"endOne": {"guid": "col-1", "typeName": "RelationalColumn"},
			"endTwo": {"guid": "term-1", "typeName": "GlossaryTerm"}
		}
	}`)

	n, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n.Relationship == nil || n.Relationship.EndOne.GUID != "col-1" || n.Relationship.EndTwo.GUID != "term-1" {
		t.Fatalf("relationship ends not decoded: %+v", n.Relationship)
	}
	if got := n.Contributor(); got != "" {
		t.Fatalf("relationship Contributor = %q, want empty", got)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"unknown kind", `{"kind":"exploded","category":"entity","entity":{"guid":"e"}}`},
		{"unknown category", `{"kind":"updated","category":"widget","entity":{"guid":"e"}}`},
		{"entity without payload", `{"kind":"updated","category":"entity"}`},
		{"relationship without payload", `{"kind":"updated","category":"relationship"}`},
		{"entity with relationship payload", `{"kind":"updated","category":"entity","entity":{"guid":"e"},"relationship":{"guid":"r"}}`},
		{"declassified without name", `{"kind":"declassified","category":"entity","entity":{"guid":"e"}}`},
		{"reclassified without name", `{"kind":"reclassified","category":"entity","entity":{"guid":"e"}}`},
		{"not json", `{{{`},
	}
	for _, tc := range cases {
		if _, err := Decode([]byte(tc.payload)); err == nil {
			t.Fatalf("%s: expected decode error", tc.name)
		}
	}
}

func TestSummaryPrefersFullEntityOverProxy(t *testing.T) {
	n := Notification{
		Kind:        KindUpdated,
		Category:    CategoryEntity,
		Entity:      &Entity{GUID: "full", TypeName: "Person"},
		EntityProxy: &EntityProxy{GUID: "proxy", TypeName: "Person"},
	}
	summary, err := n.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.InstanceGUID() != "full" {
		t.Fatalf("Summary picked %q, want the full entity", summary.InstanceGUID())
	}
}

func TestContributorFallsBackToCreatedBy(t *testing.T) {
	n := Notification{
		Kind:     KindNew,
		Category: CategoryEntity,
		Entity:   &Entity{GUID: "e-1", TypeName: "Person", CreatedBy: "carol"},
	}
	if got := n.Contributor(); got != "carol" {
		t.Fatalf("Contributor = %q, want carol", got)
	}

	n.Entity = nil
	n.EntityProxy = &EntityProxy{GUID: "e-1", TypeName: "Person"}
	if got := n.Contributor(); got != "" {
		t.Fatalf("proxy Contributor = %q, want empty", got)
	}
}

func TestDisplayNameFallbackChain(t *testing.T) {
	cases := []struct {
		props map[string]any
		want  string
	}{
		{map[string]any{"displayName": "A", "name": "B", "qualifiedName": "C"}, "A"},
		{map[string]any{"name": "B", "qualifiedName": "C"}, "B"},
		{map[string]any{"qualifiedName": "C"}, "C"},
		{map[string]any{}, "g-1"},
		{nil, "g-1"},
	}
	for i, tc := range cases {
		e := Entity{GUID: "g-1", Properties: tc.props}
		if got := e.DisplayName(); got != tc.want {
			t.Fatalf("case %d: DisplayName = %q, want %q", i, got, tc.want)
		}
	}
}

func TestEntityPropertyHelpers(t *testing.T) {
	e := Entity{
		GUID: "e-1",
		Properties: map[string]any{
			"position":   float64(4),
			"isNullable": true,
			"dataType":   "VARCHAR",
		},
		Classifications: []Classification{
			{Name: "PrimaryKey", Properties: map[string]any{"name": "pk_orders"}},
		},
	}
	if e.IntProperty("position") != 4 {
		t.Fatalf("IntProperty = %d", e.IntProperty("position"))
	}
	if !e.BoolProperty("isNullable") {
		t.Fatal("BoolProperty = false")
	}
	if e.StringProperty("dataType") != "VARCHAR" {
		t.Fatalf("StringProperty = %q", e.StringProperty("dataType"))
	}
	if e.IntProperty("missing") != 0 || e.BoolProperty("missing") || e.StringProperty("missing") != "" {
		t.Fatal("missing properties must be zero-valued")
	}

	pk, ok := e.Classification("PrimaryKey")
	if !ok || pk.Properties["name"] != "pk_orders" {
		t.Fatalf("Classification lookup failed: %+v ok=%v", pk, ok)
	}
	if _, ok := e.Classification("Confidentiality"); ok {
		t.Fatal("unexpected classification match")
	}
}
