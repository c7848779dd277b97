package tabulate

// Summary es el número de valores distintos no vacíos por columna activa.
type Summary map[Column]int

// Count devuelve el recuento de una columna (0 si no está activa).
func (s Summary) Count(c Column) int { return s[c] }

// Aggregator acumula, sobre las filas conservadas, los conjuntos de valores
// distintos de cada columna. Compara por igualdad exacta de texto.
// No es seguro para uso concurrente.
type Aggregator struct {
	cols []Column
	sets []map[string]struct{}
}

// NewAggregator prepara un agregador para cols.
func NewAggregator(cols []Column) *Aggregator {
	sets := make([]map[string]struct{}, len(cols))
	for i := range sets {
		sets[i] = make(map[string]struct{})
	}
	return &Aggregator{cols: cols, sets: sets}
}

// Add incorpora una fila. Las celdas sobrantes o vacías se ignoran.
func (a *Aggregator) Add(row []string) {
	for i := range a.cols {
		if i >= len(row) || row[i] == "" {
			continue
		}
		a.sets[i][row[i]] = struct{}{}
	}
}

// AddGroup incorpora todas las filas de un grupo.
func (a *Aggregator) AddGroup(g RowGroup) {
	for _, row := range g.Rows {
		a.Add(row)
	}
}

// Summary devuelve los recuentos actuales.
func (a *Aggregator) Summary() Summary {
	out := make(Summary, len(a.cols))
	for i, c := range a.cols {
		out[c] = len(a.sets[i])
	}
	return out
}

// RecomputeSummary calcula el resumen solo a partir de los grupos.
func RecomputeSummary(cols []Column, groups []RowGroup) Summary {
	agg := NewAggregator(cols)
	for _, g := range groups {
		agg.AddGroup(g)
	}
	return agg.Summary()
}
