package tabulate

import (
	"strings"

	"scan-rows/internal/core/hosts"
)

// RowGroup son las filas de un host que pasaron el filtro, en su orden
// original.
type RowGroup struct {
	Rows [][]string `json:"rows"`
}

// columnValues devuelve la lista de valores de una columna multivaluada.
func columnValues(f hosts.Fields, c Column) []string {
	switch c {
	case ColumnDomains:
		return f.Domains
	case ColumnPorts:
		return f.Ports
	case ColumnCity:
		if f.City == "" {
			return nil
		}
		return []string{f.City}
	case ColumnVulns:
		out := make([]string, len(f.Vulns))
		for i, v := range f.Vulns {
			out[i] = v.ID
		}
		return out
	case ColumnCVSS:
		out := make([]string, len(f.Vulns))
		for i, v := range f.Vulns {
			out[i] = v.Score
		}
		return out
	case ColumnProduct:
		out := make([]string, len(f.Products))
		for i, p := range f.Products {
			out[i] = p.Name
		}
		return out
	case ColumnWebTech:
		return f.WebTech
	case ColumnVersions:
		out := make([]string, len(f.Products))
		for i, p := range f.Products {
			if p.Name != "" {
				out[i] = p.Version
			}
		}
		return out
	}
	return nil
}

func singletonValue(f hosts.Fields, c Column) string {
	switch c {
	case ColumnIP:
		return f.IP
	case ColumnOrg:
		return f.Org
	case ColumnTimestamp:
		return f.Timestamp
	}
	return ""
}

// Project construye las filas candidatas de un host. Se generan
// max(1, longitud de cada columna multivaluada activa) filas; las columnas
// singleton solo tienen valor en la fila 0 y el resto se alinea por posición.
func Project(f hosts.Fields, cols []Column) [][]string {
	values := make([][]string, len(cols))
	rowCount := 1
	for i, c := range cols {
		if c.Singleton() {
			continue
		}
		values[i] = columnValues(f, c)
		rowCount = max(rowCount, len(values[i]))
	}

	rows := make([][]string, rowCount)
	for r := range rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			switch {
			case c.Singleton():
				if r == 0 {
					row[i] = singletonValue(f, c)
				}
			case r < len(values[i]):
				row[i] = values[i][r]
			}
		}
		rows[r] = row
	}
	return rows
}

// ParseTerms separa una cadena de términos por ";", recorta, pasa a
// minúsculas y descarta los vacíos.
func ParseTerms(s string) []string {
	var terms []string
	for _, part := range strings.Split(s, ";") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// PassesFilter une la fila con "," en minúsculas y exige que contenga todos
// los términos de include y ninguno de exclude.
func PassesFilter(row []string, include, exclude []string) bool {
	if len(include) == 0 && len(exclude) == 0 {
		return true
	}
	joined := strings.ToLower(strings.Join(row, ","))
	for _, term := range include {
		if !strings.Contains(joined, term) {
			return false
		}
	}
	for _, term := range exclude {
		if strings.Contains(joined, term) {
			return false
		}
	}
	return true
}

// Filter agrupa los términos ya parseados.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter parsea las cadenas de include y exclude.
func NewFilter(include, exclude string) Filter {
	return Filter{Include: ParseTerms(include), Exclude: ParseTerms(exclude)}
}

// Pass aplica PassesFilter con los términos del filtro.
func (f Filter) Pass(row []string) bool {
	return PassesFilter(row, f.Include, f.Exclude)
}

// Keep devuelve las filas que pasan el filtro, en el mismo orden.
func (f Filter) Keep(rows [][]string) [][]string {
	var kept [][]string
	for _, row := range rows {
		if f.Pass(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

// Build proyecta y filtra un host. Devuelve false si no sobrevive ninguna
// fila; en ese caso el host no aporta grupo.
func Build(f hosts.Fields, cols []Column, filter Filter) (RowGroup, bool) {
	kept := filter.Keep(Project(f, cols))
	if len(kept) == 0 {
		return RowGroup{}, false
	}
	return RowGroup{Rows: kept}, true
}
