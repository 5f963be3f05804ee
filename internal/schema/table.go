package schema

import "fmt"

type Key struct {
	Schema string
	Table  string
}

func (k Key) String() string { return k.Schema + "." + k.Table }

type Column struct {
	Name string
	Type string // information_schema DATA_TYPE, lower case
}

// Table is an immutable column list for one table. Column names are kept in
// a flat slice so index lookups stay O(1) per row.
type Table struct {
	key     Key
	columns []Column
	names   []string
	pk      []string
}

func NewTable(key Key, columns []Column, pk []string) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return &Table{key: key, columns: cols, names: names, pk: append([]string(nil), pk...)}
}

func (t *Table) Key() Key         { return t.key }
func (t *Table) Name() string     { return t.key.String() }
func (t *Table) ColumnCount() int { return len(t.columns) }

func (t *Table) NameAt(i int) string {
	if i < 0 || i >= len(t.names) {
		return fmt.Sprintf("col_%d", i+1)
	}
	return t.names[i]
}

func (t *Table) TypeAt(i int) string {
	if i < 0 || i >= len(t.columns) {
		return ""
	}
	return t.columns[i].Type
}

func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// PrimaryKey lists the primary key columns in key order.
func (t *Table) PrimaryKey() []string {
	return append([]string(nil), t.pk...)
}
