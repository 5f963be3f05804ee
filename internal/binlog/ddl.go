package binlog

import (
	"regexp"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"binlog_row_publisher/internal/schema"
)

// ddlKeyword recognizes table DDL the parser could not read, so the whole
// database can be dropped from the cache instead.
var ddlKeyword = regexp.MustCompile(`(?is)^\s*(?:/\*.*?\*/\s*)*(?:ALTER|DROP|RENAME|TRUNCATE|CREATE)\s+(?:\w+\s+)*?TABLE\b`)

// ddlParser pulls the tables a query event changes out of its statement.
type ddlParser struct {
	mu sync.Mutex
	p  *parser.Parser
}

func newDDLParser() *ddlParser {
	return &ddlParser{p: parser.New()}
}

// tables returns the tables query changes. ok is false when the query is
// table DDL whose tables could not be identified.
func (d *ddlParser) tables(db, query string) (keys []schema.Key, ok bool) {
	d.mu.Lock()
	stmts, _, err := d.p.Parse(query, "", "")
	d.mu.Unlock()
	if err != nil {
		return nil, !ddlKeyword.MatchString(query)
	}

	add := func(t *ast.TableName) {
		if t == nil {
			return
		}
		k := schema.Key{Schema: t.Schema.String(), Table: t.Name.String()}
		if k.Schema == "" {
			k.Schema = db
		}
		keys = append(keys, k)
	}
	for _, stmt := range stmts {
		switch t := stmt.(type) {
		case *ast.RenameTableStmt:
			for _, tt := range t.TableToTables {
				add(tt.OldTable)
				add(tt.NewTable)
			}
		case *ast.DropTableStmt:
			for _, tbl := range t.Tables {
				add(tbl)
			}
		case *ast.AlterTableStmt:
			add(t.Table)
		case *ast.CreateTableStmt:
			add(t.Table)
		case *ast.TruncateTableStmt:
			add(t.Table)
		case *ast.CreateIndexStmt:
			add(t.Table)
		case *ast.DropIndexStmt:
			add(t.Table)
		}
	}
	return keys, true
}
