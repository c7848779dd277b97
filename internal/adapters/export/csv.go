// Package export vuelca el resultado del motor a formatos de intercambio:
// CSV (filas aplanadas en orden) y una tabla SQLite.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"scan-rows/internal/core/engine"
	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions ajusta la salida CSV.
type CSVOptions struct {
	// BOM antepone la marca UTF-8 para que las hojas de cálculo detecten la
	// codificación.
	BOM bool
}

// FormulaGuard antepone "'" a los valores que una hoja de cálculo
// interpretaría como fórmula.
func FormulaGuard(v string) string {
	if v != "" && strings.ContainsRune("=-+@", rune(v[0])) {
		return "'" + v
	}
	return v
}

// WriteCSV escribe la cabecera y después todas las filas de todos los grupos,
// en orden de host y de fila, sin reordenar ni filtrar.
func WriteCSV(w io.Writer, res *engine.Result, opts CSVOptions) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return apperrors.NewExportError("csv", "", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(guardRow(res.Headers)); err != nil {
		return apperrors.NewExportError("csv", "", err)
	}
	for _, g := range res.Groups {
		for _, row := range g.Rows {
			if err := writer.Write(guardRow(row)); err != nil {
				return apperrors.NewExportError("csv", "", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewExportError("csv", "", err)
	}
	return nil
}

func guardRow(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = FormulaGuard(v)
	}
	return out
}

// WriteCSVFile crea (o trunca) path y escribe el CSV.
func WriteCSVFile(path string, res *engine.Result, opts CSVOptions) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewExportError("csv", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = apperrors.NewExportError("csv", path, cerr)
		}
	}()

	if err := WriteCSV(file, res, opts); err != nil {
		return apperrors.WithContext(err, "target", path)
	}
	logx.Info("CSV exportado", logx.Fields{"stage": "export", "path": path, "rows": res.Rows()})
	return nil
}
