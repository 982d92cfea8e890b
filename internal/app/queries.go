package app

import (
	"fmt"
	"strings"

	"github.com/joacominatel/tdskit/internal/config"
)

// Catalog queries per dialect. Schema and table names are spliced in as
// quoted literals since sessions do not bind parameters.
const (
	queryListTablesMSSQL = `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME`

	queryGetColumnsMSSQL = `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = %s
		  AND TABLE_NAME = %s
		ORDER BY ORDINAL_POSITION`

	queryListTablesSybase = `
		SELECT user_name(uid), name
		FROM sysobjects
		WHERE type = 'U'
		ORDER BY 1, 2`

	queryGetColumnsSybase = `
		SELECT c.name, t.name,
			CASE WHEN c.status & 8 = 8 THEN 'YES' ELSE 'NO' END,
			c.colid
		FROM syscolumns c
		JOIN systypes t ON t.usertype = c.usertype
		JOIN sysobjects o ON o.id = c.id
		WHERE user_name(o.uid) = %s
		  AND o.name = %s
		ORDER BY c.colid`

	queryPreviewTable = "SELECT TOP 100 * FROM %s.%s"
	queryCountRows    = "SELECT COUNT(*) FROM %s.%s"
)

func listTablesQuery(dialect string) string {
	if dialect == config.DialectSybase {
		return queryListTablesSybase
	}
	return queryListTablesMSSQL
}

func columnsQuery(dialect, schema, table string) string {
	q := queryGetColumnsMSSQL
	if dialect == config.DialectSybase {
		q = queryGetColumnsSybase
	}
	return fmt.Sprintf(q, quoteLiteral(schema), quoteLiteral(table))
}

// PreviewQuery selects the first rows of schema.table.
func PreviewQuery(schema, table string) string {
	return fmt.Sprintf(queryPreviewTable, schema, table)
}

// CountQuery counts the rows of schema.table.
func CountQuery(schema, table string) string {
	return fmt.Sprintf(queryCountRows, schema, table)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
