package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLLoader reads table shapes from information_schema.
type MySQLLoader struct {
	DB *sql.DB
}

func (l MySQLLoader) Load(ctx context.Context, key Key) (*Table, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, key.Schema, key.Table)
	if err != nil {
		return nil, fmt.Errorf("load columns for %s: %w", key, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", key, err)
		}
		c.Type = strings.ToLower(c.Type)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load columns for %s: %w", key, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found in information_schema", key)
	}

	pk, err := l.primaryKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewTable(key, cols, pk), nil
}

func (l MySQLLoader) primaryKey(ctx context.Context, key Key) ([]string, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION`, key.Schema, key.Table)
	if err != nil {
		return nil, fmt.Errorf("load primary key for %s: %w", key, err)
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan primary key for %s: %w", key, err)
		}
		pk = append(pk, c)
	}
	return pk, rows.Err()
}

// ReadMasterFilePos returns the binlog file and position the server is
// currently writing to.
func ReadMasterFilePos(ctx context.Context, db *sql.DB) (file string, pos uint64, err error) {
	row := db.QueryRowContext(ctx, "SHOW MASTER STATUS")
	var binDo, binIgnore, execGTID sql.NullString
	if err = row.Scan(&file, &pos, &binDo, &binIgnore, &execGTID); err != nil {
		return "", 0, err
	}
	if file == "" {
		return "", 0, fmt.Errorf("binary logging not enabled (empty file from SHOW MASTER STATUS)")
	}
	return file, pos, nil
}
