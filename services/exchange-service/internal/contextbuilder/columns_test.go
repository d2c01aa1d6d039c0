package contextbuilder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
)

// columnGraph wires a table with three columns declared out of position
// order, a primary key, a business term and a foreign key.
func columnGraph() *fakeFacade {
	f := newFakeFacade()
	f.addEntity("t-1", "RelationalTable", map[string]any{"displayName": "orders"})

	f.addEntity("col-id", "RelationalColumn", map[string]any{
		"displayName": "order_id", "position": float64(1), "isUnique": true,
	})
	f.addEntity("col-total", "RelationalColumn", map[string]any{
		"displayName": "total_amount", "position": float64(3), "isNullable": true,
	})
	f.addEntity("col-cust", "RelationalColumn", map[string]any{
		"displayName": "customer_id", "position": float64(2),
	})

	f.addEntity("type-id", "PrimitiveSchemaType", map[string]any{"dataType": "BIGINT"})
	f.addEntity("type-total", "PrimitiveSchemaType", map[string]any{"dataType": "DECIMAL"})
	f.addEntity("type-cust", "PrimitiveSchemaType", map[string]any{"displayName": "BIGINT"})

	// Columns are linked in a different order than their positions.
	f.link(relAttributeForSchema, "t-1", "col-total", nil)
	f.link(relAttributeForSchema, "t-1", "col-id", nil)
	f.link(relAttributeForSchema, "t-1", "col-cust", nil)

	f.link(relSchemaAttributeType, "col-id", "type-id", nil)
	f.link(relSchemaAttributeType, "col-total", "type-total", nil)
	f.link(relSchemaAttributeType, "col-cust", "type-cust", nil)

	f.entities["col-id"].Classifications = []omrs.Classification{
		{Name: "PrimaryKey", Properties: map[string]any{"name": "pk_orders"}},
	}

	f.addEntity("term-clv", "GlossaryTerm", map[string]any{
		"displayName": "Order Total", "qualifiedName": "terms.order.total",
	})
	f.link(relSemanticAssignment, "col-total", "term-clv", nil)

	f.addEntity("col-cust-pk", "RelationalColumn", map[string]any{"displayName": "id", "position": float64(1)})
	f.link(relForeignKey, "col-cust-pk", "col-cust", map[string]any{"name": "fk_orders_customer"})

	return f
}

func TestTableColumnsDecoration(t *testing.T) {
	builder := testBuilder(columnGraph())

	columns, err := builder.TableColumns(context.Background(), "t-1", 0, 50)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}
	if len(columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(columns))
	}

	// Ordered by position regardless of relationship order.
	if columns[0].GUID != "col-id" || columns[1].GUID != "col-cust" || columns[2].GUID != "col-total" {
		t.Fatalf("column order = %s, %s, %s", columns[0].GUID, columns[1].GUID, columns[2].GUID)
	}

	id := columns[0]
	if !id.PrimaryKey || id.PrimaryKeyName != "pk_orders" {
		t.Fatalf("primary key column = %+v", id)
	}
	if id.DataType != "BIGINT" || !id.Unique || id.Nullable {
		t.Fatalf("id column decoration = %+v", id)
	}

	cust := columns[1]
	if cust.DataType != "BIGINT" {
		t.Fatalf("customer DataType = %q, want the type display name fallback", cust.DataType)
	}
	if cust.ForeignKey == nil {
		t.Fatal("customer column must carry its foreign key")
	}
	if cust.ForeignKey.Name != "fk_orders_customer" ||
		cust.ForeignKey.ReferencedColumnGUID != "col-cust-pk" ||
		cust.ForeignKey.ReferencedColumnName != "id" {
		t.Fatalf("foreign key = %+v", cust.ForeignKey)
	}

	total := columns[2]
	if !total.Nullable || total.DataType != "DECIMAL" {
		t.Fatalf("total column decoration = %+v", total)
	}
	if total.BusinessTerm == nil || total.BusinessTerm.GUID != "term-clv" ||
		total.BusinessTerm.DisplayName != "Order Total" ||
		total.BusinessTerm.QualifiedName != "terms.order.total" {
		t.Fatalf("business term = %+v", total.BusinessTerm)
	}
	if total.ForeignKey != nil || total.PrimaryKey {
		t.Fatalf("total column has unexpected key decorations: %+v", total)
	}
}

func TestTableColumnsMissingTypeFailsHard(t *testing.T) {
	f := columnGraph()
	var kept []omrs.Relationship
	for _, rel := range f.rels {
		if rel.TypeName == relSchemaAttributeType && rel.EndOne.GUID == "col-cust" {
			continue
		}
		kept = append(kept, rel)
	}
	f.rels = kept

	builder := testBuilder(f)
	_, err := builder.TableColumns(context.Background(), "t-1", 0, 50)
	var hopErr *HopError
	if !errors.As(err, &hopErr) {
		t.Fatalf("error = %v, want *HopError", err)
	}
	if hopErr.RelationshipType != relSchemaAttributeType || hopErr.EntityGUID != "col-cust" {
		t.Fatalf("hop error names %q from %q", hopErr.RelationshipType, hopErr.EntityGUID)
	}
}

func TestTableColumnsAmbiguousForeignKeyOmitted(t *testing.T) {
	f := columnGraph()
	f.addEntity("col-other-pk", "RelationalColumn", map[string]any{"displayName": "id", "position": float64(1)})
	f.link(relForeignKey, "col-other-pk", "col-cust", map[string]any{"name": "fk_orders_customer_2"})

	var buf bytes.Buffer
	builder := New(f, slog.New(slog.NewJSONHandler(&buf, nil)))

	columns, err := builder.TableColumns(context.Background(), "t-1", 0, 50)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}
	for _, col := range columns {
		if col.GUID == "col-cust" && col.ForeignKey != nil {
			t.Fatalf("ambiguous foreign key must be omitted, got %+v", col.ForeignKey)
		}
	}

	logged := buf.String()
	if !strings.Contains(logged, "ambiguous foreign key reference") {
		t.Fatalf("missing conflict log: %s", logged)
	}
	if !strings.Contains(logged, "col-cust-pk") || !strings.Contains(logged, "col-other-pk") {
		t.Fatalf("conflict log must name both referenced columns: %s", logged)
	}
}

func TestTableColumnsEmptyPage(t *testing.T) {
	builder := testBuilder(columnGraph())
	columns, err := builder.TableColumns(context.Background(), "t-1", 10, 50)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}
	if len(columns) != 0 {
		t.Fatalf("got %d columns past the end, want 0", len(columns))
	}
}

func TestTableColumnsPaging(t *testing.T) {
	builder := testBuilder(columnGraph())
	columns, err := builder.TableColumns(context.Background(), "t-1", 0, 2)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}
	// First two linked columns: total (pos 3) and id (pos 1), returned
	// ordered by position.
	if len(columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(columns))
	}
	if columns[0].GUID != "col-id" || columns[1].GUID != "col-total" {
		t.Fatalf("page order = %s, %s", columns[0].GUID, columns[1].GUID)
	}
}

func TestTableColumnsMatchesSequentialBuild(t *testing.T) {
	f := columnGraph()
	builder := testBuilder(f)
	ctx := context.Background()

	parallel, err := builder.TableColumns(ctx, "t-1", 0, 50)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}

	for _, want := range []string{"col-id", "col-cust", "col-total"} {
		col, err := builder.buildColumn(ctx, want)
		if err != nil {
			t.Fatalf("buildColumn(%s) failed: %v", want, err)
		}
		var got *TableColumn
		for i := range parallel {
			if parallel[i].GUID == want {
				got = &parallel[i]
			}
		}
		if got == nil {
			t.Fatalf("column %s missing from parallel result", want)
		}
		if got.DataType != col.DataType || got.Position != col.Position ||
			got.PrimaryKey != col.PrimaryKey || got.Nullable != col.Nullable {
			t.Fatalf("parallel and sequential results differ for %s: %+v vs %+v", want, got, col)
		}
	}
}

func TestTableColumnsUnknownTablePropagates(t *testing.T) {
	f := newFakeFacade()
	builder := testBuilder(f)
	columns, err := builder.TableColumns(context.Background(), "missing", 0, 50)
	if err != nil {
		t.Fatalf("TableColumns failed: %v", err)
	}
	if columns != nil {
		t.Fatalf("expected no columns for an unlinked table, got %+v", columns)
	}
}
