package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"scan-rows/internal/core/engine"
	"scan-rows/internal/core/tabulate"
	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSink guarda las filas en una tabla con una columna TEXT por cada
// columna posible de la tabla de salida, más un índice de host y de fila.
// Cada Write añade un lote nuevo.
type SQLiteSink struct {
	db    *sql.DB
	table string
}

// OpenSQLite abre (o crea) la base de datos en path y prepara la tabla.
func OpenSQLite(path, table string) (*SQLiteSink, error) {
	if !tableNameRe.MatchString(table) {
		return nil, apperrors.NewConfigurationError("table", table,
			"nombre de tabla inválido", "Usa solo letras, dígitos y '_'")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewExportError("sqlite", path, err)
	}
	if _, err := db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		db.Close()
		return nil, apperrors.NewExportError("sqlite", path, err)
	}

	cols := make([]string, 0, len(tabulate.AllColumns()))
	for _, c := range tabulate.AllColumns() {
		cols = append(cols, c.Key()+" TEXT")
	}
	createRows := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch INTEGER NOT NULL,
    host_index INTEGER NOT NULL,
    row_index INTEGER NOT NULL,
    %s
);
`, table, strings.Join(cols, ",\n    "))

	createSummary := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s_summary (
    batch INTEGER NOT NULL,
    column_key TEXT NOT NULL,
    distinct_count INTEGER NOT NULL,
    PRIMARY KEY (batch, column_key)
);
`, table)

	for _, stmt := range []string{createRows, createSummary} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, apperrors.NewExportError("sqlite", path, err)
		}
	}
	return &SQLiteSink{db: db, table: table}, nil
}

// Write inserta todas las filas y el resumen de res en una transacción y
// devuelve el número de lote asignado.
func (s *SQLiteSink) Write(ctx context.Context, res *engine.Result) (batch int64, err error) {
	if len(res.Columns) != len(res.Headers) {
		return 0, apperrors.NewExportError("sqlite", s.table,
			errors.New("el resultado no trae las columnas"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewExportError("sqlite", s.table, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX((SELECT COALESCE(MAX(batch), 0) FROM %[1]s), (SELECT COALESCE(MAX(batch), 0) FROM %[1]s_summary)) + 1", s.table)).Scan(&batch); err != nil {
		return 0, apperrors.NewExportError("sqlite", s.table, err)
	}

	names := make([]string, len(res.Columns))
	marks := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		names[i] = c.Key()
		marks[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (batch, host_index, row_index", s.table)
	if len(names) > 0 {
		insertSQL += ", " + strings.Join(names, ", ")
	}
	insertSQL += ") VALUES (?, ?, ?"
	if len(marks) > 0 {
		insertSQL += ", " + strings.Join(marks, ", ")
	}
	insertSQL += ")"

	insertStmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, apperrors.NewExportError("sqlite", s.table, err)
	}
	defer insertStmt.Close()

	rows := 0
	for gi, g := range res.Groups {
		for ri, row := range g.Rows {
			args := make([]any, 0, 3+len(row))
			args = append(args, batch, gi, ri)
			for _, v := range row {
				args = append(args, v)
			}
			if _, err := insertStmt.ExecContext(ctx, args...); err != nil {
				return 0, apperrors.NewExportError("sqlite", s.table, err)
			}
			rows++
		}
	}

	summarySQL := fmt.Sprintf("INSERT INTO %s_summary (batch, column_key, distinct_count) VALUES (?, ?, ?)", s.table)
	for _, c := range res.Columns {
		if _, err := tx.ExecContext(ctx, summarySQL, batch, c.Key(), res.Summary.Count(c)); err != nil {
			return 0, apperrors.NewExportError("sqlite", s.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewExportError("sqlite", s.table, err)
	}
	logx.Info("Filas guardadas en SQLite", logx.Fields{"stage": "export", "table": s.table, "batch": batch, "rows": rows})
	return batch, nil
}

// DB expone la conexión para consultas de lectura.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Close cierra la base de datos.
func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
