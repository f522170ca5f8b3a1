package resource

// Column maps a caller-visible field name to SQL.
type Column struct {
	// Field is the name callers use in projections, filters and sorts.
	Field string
	// Select is the expression placed in the SELECT list.
	Select string
	// Source is the table column the field reads from; used in WHERE and ORDER BY.
	Source string
}

// Projection is an immutable whitelist of fields a scope may return.
type Projection struct {
	columns []Column
	byField map[string]Column
}

func newProjection(cols ...Column) *Projection {
	p := &Projection{
		columns: cols,
		byField: make(map[string]Column, len(cols)),
	}
	for _, c := range cols {
		p.byField[c.Field] = c
	}
	return p
}

// Fields returns the field names in declaration order.
func (p *Projection) Fields() []string {
	out := make([]string, len(p.columns))
	for i, c := range p.columns {
		out[i] = c.Field
	}
	return out
}

// Lookup returns the column for a field name.
func (p *Projection) Lookup(field string) (Column, bool) {
	c, ok := p.byField[field]
	return c, ok
}

// Note table columns.
const (
	ColumnID       = "_id"
	ColumnTitle    = "title"
	ColumnBody     = "note"
	ColumnCreated  = "created"
	ColumnModified = "modified"
	ColumnCategory = "category"
)

// Field names exposed to callers.
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldBody       = "body"
	FieldCreatedAt  = "created_at"
	FieldModifiedAt = "modified_at"
	FieldCategory   = "category"
	FieldName       = "name"
)

func notesProjection() *Projection {
	return newProjection(
		Column{Field: FieldID, Select: ColumnID, Source: ColumnID},
		Column{Field: FieldTitle, Select: ColumnTitle, Source: ColumnTitle},
		Column{Field: FieldBody, Select: ColumnBody, Source: ColumnBody},
		Column{Field: FieldCreatedAt, Select: ColumnCreated, Source: ColumnCreated},
		Column{Field: FieldModifiedAt, Select: ColumnModified, Source: ColumnModified},
		Column{Field: FieldCategory, Select: ColumnCategory, Source: ColumnCategory},
	)
}

func liveFolderProjection() *Projection {
	return newProjection(
		Column{Field: FieldID, Select: ColumnID + " AS " + FieldID, Source: ColumnID},
		Column{Field: FieldName, Select: ColumnTitle + " AS " + FieldName, Source: ColumnTitle},
	)
}
