package loader

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cast"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// sqliteLoader treats the tables of a database file as sheets.
type sqliteLoader struct{}

func (sqliteLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".db", ".sqlite", ".sqlite3")
}

func (sqliteLoader) Load(ctx context.Context, path string, opt Options) (*dataset.Dataset, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	table, err := pickSheet(tables, opt, name)
	if err != nil {
		return nil, err
	}

	q := "SELECT * FROM " + quoteIdent(table)
	if opt.MaxRows > 0 {
		q += fmt.Sprintf(" LIMIT %d", opt.MaxRows)
	}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	var values [][]dataset.Value
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", table, len(values)+1, err)
		}
		row := make([]dataset.Value, len(cols))
		for i, v := range raw {
			row[i] = sqlValue(v)
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	ds := dataset.New(name, NormalizeHeaders(cols), values)
	ds.Sheet = table
	ds.Sheets = tables
	return ds, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sqlValue(v any) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null
	case int64:
		return dataset.Num(float64(x))
	case float64:
		return dataset.Num(x)
	case []byte:
		return dataset.ParseCell(string(x))
	case string:
		return dataset.ParseCell(x)
	case time.Time:
		return dataset.Str(x.Format(time.RFC3339))
	default:
		return dataset.Str(cast.ToString(x))
	}
}
