// Package tabulate convierte los campos de un host en filas rectangulares,
// filtra esas filas y agrega los recuentos de valores distintos por columna.
package tabulate

import (
	"fmt"
	"strings"
)

// Column identifica una columna de salida. El orden de las constantes es el
// orden fijo de las columnas en la tabla.
type Column int

const (
	ColumnIP Column = iota
	ColumnDomains
	ColumnPorts
	ColumnCity
	ColumnOrg
	ColumnVulns
	ColumnCVSS
	ColumnProduct
	ColumnWebTech
	ColumnVersions
	ColumnTimestamp
	numColumns
)

var columnHeaders = [numColumns]string{
	ColumnIP:        "IP",
	ColumnDomains:   "Domain(s)",
	ColumnPorts:     "Ports",
	ColumnCity:      "City",
	ColumnOrg:       "Organization",
	ColumnVulns:     "Vulnerabilities",
	ColumnCVSS:      "CVSS",
	ColumnProduct:   "Product",
	ColumnWebTech:   "Web Technologies",
	ColumnVersions:  "Versions",
	ColumnTimestamp: "Timestamp",
}

// Claves del resumen.
var columnKeys = [numColumns]string{
	ColumnIP:        "ips",
	ColumnDomains:   "domains",
	ColumnPorts:     "ports",
	ColumnCity:      "cities",
	ColumnOrg:       "orgs",
	ColumnVulns:     "vulns",
	ColumnCVSS:      "cvss",
	ColumnProduct:   "products",
	ColumnWebTech:   "webtech",
	ColumnVersions:  "versions",
	ColumnTimestamp: "timestamps",
}

// AllColumns devuelve todas las columnas en orden.
func AllColumns() []Column {
	cols := make([]Column, numColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

func (c Column) valid() bool { return c >= 0 && c < numColumns }

// Header es el título visible de la columna.
func (c Column) Header() string {
	if !c.valid() {
		return ""
	}
	return columnHeaders[c]
}

// Key es el nombre de la columna en el resumen.
func (c Column) Key() string {
	if !c.valid() {
		return ""
	}
	return columnKeys[c]
}

func (c Column) String() string {
	if !c.valid() {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnKeys[c]
}

// Singleton indica si el valor pertenece al host y no a un sub-elemento:
// solo aparece en la primera fila del grupo.
func (c Column) Singleton() bool {
	switch c {
	case ColumnIP, ColumnOrg, ColumnTimestamp:
		return true
	}
	return false
}

// MarshalText permite usar Column como clave de mapas JSON/YAML.
func (c Column) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("tabulate: columna inválida %d", int(c))
	}
	return []byte(columnKeys[c]), nil
}

// UnmarshalText acepta la clave de resumen de la columna.
func (c *Column) UnmarshalText(text []byte) error {
	col, err := ParseColumn(string(text))
	if err != nil {
		return err
	}
	*c = col
	return nil
}

// ParseColumn resuelve una clave de resumen ("ports", "vulns"...).
func ParseColumn(key string) (Column, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, k := range columnKeys {
		if k == key {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("tabulate: columna desconocida %q", key)
}

// Headers devuelve los títulos de cols.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header()
	}
	return out
}

// Selection es el conjunto de campos elegidos por el usuario.
type Selection struct {
	IP             bool `yaml:"ip" json:"ip"`
	Domain         bool `yaml:"domain" json:"domain"`
	Ports          bool `yaml:"ports" json:"ports"`
	City           bool `yaml:"city" json:"city"`
	Org            bool `yaml:"org" json:"org"`
	Vulns          bool `yaml:"vulns" json:"vulns"`
	CVSS           bool `yaml:"cvss" json:"cvss"`
	ProductAndTech bool `yaml:"product_and_tech" json:"product_and_tech"`
	Versions       bool `yaml:"versions" json:"versions"`
	Timestamp      bool `yaml:"timestamp" json:"timestamp"`
}

// Columns deriva las columnas activas, siempre en el orden fijo.
// ProductAndTech activa dos columnas: Product y Web Technologies.
func (s Selection) Columns() []Column {
	var cols []Column
	add := func(on bool, c ...Column) {
		if on {
			cols = append(cols, c...)
		}
	}
	add(s.IP, ColumnIP)
	add(s.Domain, ColumnDomains)
	add(s.Ports, ColumnPorts)
	add(s.City, ColumnCity)
	add(s.Org, ColumnOrg)
	add(s.Vulns, ColumnVulns)
	add(s.CVSS, ColumnCVSS)
	add(s.ProductAndTech, ColumnProduct, ColumnWebTech)
	add(s.Versions, ColumnVersions)
	add(s.Timestamp, ColumnTimestamp)
	return cols
}
