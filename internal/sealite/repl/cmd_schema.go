package repl

import (
	"errors"
	"strings"
)

var errTableRequired = errors.New("table name is required")

func cmdTables(r *Repl) {
	r.printRead(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
}

func cmdSchema(r *Repl, tableName string) {
	if tableName == "" {
		r.printRead(`
			SELECT sql FROM sqlite_master
			WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
			ORDER BY tbl_name, type DESC, name
		`)
		return
	}

	r.printRead(`
		SELECT sql FROM sqlite_master
		WHERE sql IS NOT NULL AND tbl_name = ?
		ORDER BY type DESC, name
	`, tableName)
}

func cmdIndexes(r *Repl, tableName string) {
	if tableName == "" {
		r.printRead(`
			SELECT name, tbl_name AS "table" FROM sqlite_master
			WHERE type = 'index'
			ORDER BY tbl_name, name
		`)
		return
	}

	r.printRead(`
		SELECT name, tbl_name AS "table" FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ?
		ORDER BY name
	`, tableName)
}

func cmdColumns(r *Repl, tableName string) {
	if tableName == "" {
		r.printError(errTableRequired)
		return
	}

	r.printRead(`
		SELECT cid, name, type, "notnull", dflt_value AS "default", pk
		FROM pragma_table_info(?)
		ORDER BY cid
	`, tableName)
}

func cmdCount(r *Repl, tableName string) {
	if tableName == "" {
		r.printError(errTableRequired)
		return
	}

	r.printRead("SELECT COUNT(*) AS count FROM " + quoteIdent(tableName))
}

func cmdFunctions(r *Repl) {
	r.printRead("SELECT DISTINCT name FROM pragma_function_list ORDER BY name")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
