package store

import (
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
)

// dialect captures the SQL differences between the two backends. Queries are
// written with `?` placeholders and rebound for backends that number them.
type dialect struct {
	name           string
	gooseDialect   goose.Dialect
	migrationsDir  string
	numbered       bool
	retryBusy      bool
	nowExpr        string
	dateParam      string
	repairSequence func(table string) []string
}

var sqliteDialect = dialect{
	name:          "sqlite",
	gooseDialect:  goose.DialectSQLite3,
	migrationsDir: "migrations/sqlite",
	retryBusy:     true,
	nowExpr:       "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')",
	dateParam:     "?",
	repairSequence: func(table string) []string {
		// SQLite hands out seq+1, so seq is set to the current maximum.
		return []string{
			"UPDATE sqlite_sequence SET seq = (SELECT COALESCE(MAX(id), 0) FROM " + table + ") WHERE name = '" + table + "'",
			"INSERT INTO sqlite_sequence (name, seq) SELECT '" + table + "', (SELECT MAX(id) FROM " + table + ")" +
				" WHERE EXISTS (SELECT 1 FROM " + table + ") AND NOT EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = '" + table + "')",
		}
	},
}

var postgresDialect = dialect{
	name:          "postgres",
	gooseDialect:  goose.DialectPostgres,
	migrationsDir: "migrations/postgres",
	numbered:      true,
	nowExpr:       "now()",
	dateParam:     "CAST(? AS DATE)",
	repairSequence: func(table string) []string {
		// is_called=false makes the next nextval return exactly max(id)+1.
		return []string{
			"SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), COALESCE((SELECT MAX(id) FROM " + table + "), 0) + 1, false)",
		}
	},
}

// rebind rewrites `?` placeholders to `$n` for numbered dialects. Question marks
// inside single-quoted literals are left alone.
func (d dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
