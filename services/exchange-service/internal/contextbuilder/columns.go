package contextbuilder

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
)

// TableColumns lists and decorates the columns of a table, paged over the
// table's attribute relationships. Decoration of each column is an
// independent read of its own subgraph, so columns are decorated
// concurrently; results are collected by index and then ordered by column
// position, which keeps the output identical to a sequential run.
func (b *Builder) TableColumns(ctx context.Context, tableGUID string, startFrom, pageSize int) ([]TableColumn, error) {
	rels, err := b.facade.Relationships(ctx, tableGUID, relAttributeForSchema, startFrom, pageSize)
	if err != nil {
		return nil, err
	}

	var columnGUIDs []string
	for _, rel := range rels {
		if rel.EndOne.GUID == tableGUID {
			columnGUIDs = append(columnGUIDs, rel.EndTwo.GUID)
		}
	}
	if len(columnGUIDs) == 0 {
		return nil, nil
	}

	columns := make([]TableColumn, len(columnGUIDs))
	errs := make([]error, len(columnGUIDs))

	var wg sync.WaitGroup
	for i, guid := range columnGUIDs {
		wg.Add(1)
		go func(i int, guid string) {
			defer wg.Done()
			col, err := b.buildColumn(ctx, guid)
			if err != nil {
				errs[i] = err
				return
			}
			columns[i] = *col
		}(i, guid)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Position < columns[j].Position
	})
	return columns, nil
}

// buildColumn resolves one column and its decorations. The declared type hop
// is structural; key, nullability, term and foreign-key annotations are
// best-effort and absent values stay zero.
func (b *Builder) buildColumn(ctx context.Context, columnGUID string) (*TableColumn, error) {
	column, err := b.facade.Entity(ctx, columnGUID)
	if err != nil {
		return nil, err
	}

	col := TableColumn{
		GUID:        column.GUID,
		DisplayName: column.DisplayName(),
		Position:    column.IntProperty("position"),
		Nullable:    column.BoolProperty("isNullable"),
		Unique:      column.BoolProperty("isUnique"),
	}

	columnType, err := b.firstChild(ctx, column.GUID, relSchemaAttributeType)
	if err != nil {
		return nil, err
	}
	col.DataType = columnType.StringProperty("dataType")
	if col.DataType == "" {
		col.DataType = columnType.DisplayName()
	}

	if pk, ok := column.Classification(classificationPrimaryKey); ok {
		col.PrimaryKey = true
		col.PrimaryKeyName, _ = pk.Properties["name"].(string)
	}

	term, err := b.businessTerm(ctx, column)
	if err != nil {
		return nil, err
	}
	col.BusinessTerm = term

	fk, err := b.foreignKey(ctx, column)
	if err != nil {
		return nil, err
	}
	col.ForeignKey = fk

	return &col, nil
}

// businessTerm resolves the column's assigned glossary term, if any. A
// missing assignment is not an error.
func (b *Builder) businessTerm(ctx context.Context, column *omrs.Entity) (*BusinessTerm, error) {
	rels, err := b.facade.Relationships(ctx, column.GUID, relSemanticAssignment, 0, hopScanSize)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		if rel.EndOne.GUID != column.GUID {
			continue
		}
		term, err := b.facade.Entity(ctx, rel.EndTwo.GUID)
		if err != nil {
			return nil, err
		}
		return &BusinessTerm{
			GUID:          term.GUID,
			DisplayName:   term.DisplayName(),
			QualifiedName: term.QualifiedName(),
		}, nil
	}
	return nil, nil
}

// foreignKey resolves the column referenced by this column's foreign key.
// The column is the "many" (end two) side. More than one foreign key is
// ambiguous: the reference is omitted and the conflict logged, rather than
// guessing which referenced column is canonical.
func (b *Builder) foreignKey(ctx context.Context, column *omrs.Entity) (*ForeignKey, error) {
	rels, err := b.facade.Relationships(ctx, column.GUID, relForeignKey, 0, hopScanSize)
	if err != nil {
		return nil, err
	}

	var matches []omrs.Relationship
	for _, rel := range rels {
		if rel.EndTwo.GUID == column.GUID {
			matches = append(matches, rel)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		referenced := make([]string, 0, len(matches))
		for _, rel := range matches {
			referenced = append(referenced, rel.EndOne.GUID)
		}
		b.logger.Error("ambiguous foreign key reference",
			"column_guid", column.GUID,
			"referenced_guids", strings.Join(referenced, ","))
		return nil, nil
	}

	referenced, err := b.facade.Entity(ctx, matches[0].EndOne.GUID)
	if err != nil {
		return nil, err
	}
	return &ForeignKey{
		Name:                 matches[0].StringProperty("name"),
		ReferencedColumnGUID: referenced.GUID,
		ReferencedColumnName: referenced.DisplayName(),
	}, nil
}
