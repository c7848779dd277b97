// Package engine encadena el parser tolerante, la extracción de campos, la
// proyección en filas y el resumen. Process es la entrada síncrona; Start la
// ejecuta en otra goroutine y publica eventos de progreso.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"scan-rows/internal/core/document"
	"scan-rows/internal/core/hosts"
	"scan-rows/internal/core/recovery"
	"scan-rows/internal/core/tabulate"
	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
)

// DefaultChunkSize es el número de hosts por bloque de trabajo.
const DefaultChunkSize = 100

// Hitos de progreso: el parseo ocupa hasta parsedPercent y los bloques de
// hosts reparten el tramo hasta rowsPercent.
const (
	parsedPercent = 35
	rowsPercent   = 95
	donePercent   = 100
)

// Options es la configuración de una ejecución.
type Options struct {
	Selection tabulate.Selection
	// Include y Exclude son listas de términos separadas por ";".
	Include string
	Exclude string
	Hosts   hosts.Options
	// ChunkSize y Workers solo afectan a la planificación, nunca al
	// resultado.
	ChunkSize int
	Workers   int
}

// DefaultOptions devuelve la selección por defecto sin filtros.
func DefaultOptions() Options {
	return Options{
		Selection: tabulate.Selection{
			IP: true, Domain: true, Ports: true, Org: true, Vulns: true,
			ProductAndTech: true, Versions: true,
		},
		Hosts:     hosts.DefaultOptions(),
		ChunkSize: DefaultChunkSize,
		Workers:   1,
	}
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Result es la tabla producida por Process.
type Result struct {
	Headers []string            `json:"headers"`
	Columns []tabulate.Column   `json:"-"`
	Groups  []tabulate.RowGroup `json:"groups"`
	Summary tabulate.Summary    `json:"summary"`
	// FixedText solo se rellena si el texto necesitó reparación.
	FixedText string            `json:"fixedText,omitempty"`
	Strategy  recovery.Strategy `json:"strategy"`
	// Hosts es el número de registros con forma de objeto procesados.
	Hosts int `json:"hosts"`
}

// Rows devuelve el número total de filas en todos los grupos.
func (r *Result) Rows() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Rows)
	}
	return n
}

// ProgressFunc recibe porcentajes en [0,100], nunca decrecientes.
type ProgressFunc func(percent int)

// Process interpreta raw y construye la tabla. El único error de dominio es
// el *recovery.SyntaxError del parser (envuelto con una sugerencia); además
// puede devolver ctx.Err() si el contexto se cancela.
func Process(ctx context.Context, raw string, opts Options, progress ProgressFunc) (*Result, error) {
	opts = opts.normalized()
	tracker := newProgressTracker(progress)
	tracker.Report(0)

	op := logx.StartOperation("engine", "process", logx.Fields{"bytes": len(raw)})

	parsed, err := recovery.Parse(raw)
	if err != nil {
		op.Fail(err)
		return nil, describeParseError(err)
	}
	if err := ctx.Err(); err != nil {
		op.Fail(err)
		return nil, err
	}
	tracker.Report(parsedPercent)

	records := hostRecords(parsed.Value)
	cols := opts.Selection.Columns()
	tracker.setTotal(len(records))

	groups, err := buildGroups(ctx, records, cols, opts, tracker)
	if err != nil {
		op.Fail(err)
		return nil, err
	}
	tracker.Report(rowsPercent)

	res := &Result{
		Headers:  tabulate.Headers(cols),
		Columns:  cols,
		Groups:   groups,
		Summary:  tabulate.RecomputeSummary(cols, groups),
		Strategy: parsed.Strategy,
		Hosts:    len(records),
	}
	if parsed.Fixed {
		res.FixedText = parsed.Text
	}
	tracker.Report(donePercent)

	op.AddField("strategy", string(parsed.Strategy))
	op.AddField("hosts", res.Hosts)
	op.AddField("groups", len(res.Groups))
	op.AddField("rows", res.Rows())
	op.Complete()
	return res, nil
}

func describeParseError(err error) error {
	var syn *recovery.SyntaxError
	if !errors.As(err, &syn) {
		return err
	}
	if syn.Line > 0 {
		return apperrors.WithSuggestion(err,
			fmt.Sprintf("Revisa el JSON cerca de la línea %d, columna %d", syn.Line, syn.Col))
	}
	return apperrors.WithSuggestion(err, "Revisa que el texto sea JSON o JSON Lines")
}

// hostRecords devuelve los registros con forma de objeto. Un valor que no
// sea array se trata como un único registro.
func hostRecords(v document.Value) []document.Value {
	items := []document.Value{v}
	if v.Kind() == document.Array {
		items = v.Items()
	}
	records := make([]document.Value, 0, len(items))
	for _, item := range items {
		if item.Kind() == document.Object {
			records = append(records, item)
		}
	}
	return records
}

type chunkRange struct{ index, start, end int }

func chunkRanges(total, size int) []chunkRange {
	var out []chunkRange
	for start := 0; start < total; start += size {
		out = append(out, chunkRange{index: len(out), start: start, end: min(start+size, total)})
	}
	return out
}

// buildGroups procesa los registros por bloques. Cada bloque escribe en su
// propia posición, así que el orden final es el de entrada sea cual sea el
// número de workers.
func buildGroups(ctx context.Context, records []document.Value, cols []tabulate.Column, opts Options, tracker *progressTracker) ([]tabulate.RowGroup, error) {
	groups := make([]tabulate.RowGroup, 0, len(records))
	if len(cols) == 0 || len(records) == 0 {
		return groups, nil
	}

	filter := tabulate.NewFilter(opts.Include, opts.Exclude)
	chunks := chunkRanges(len(records), opts.ChunkSize)
	results := make([][]tabulate.RowGroup, len(chunks))

	total := int64(len(records))
	var done atomic.Int64
	process := func(c chunkRange) {
		results[c.index] = buildChunk(records[c.start:c.end], cols, filter, opts.Hosts)
		tracker.hostsDone(c.end - c.start)
		n := done.Add(int64(c.end - c.start))
		if logx.Enabled(logx.LevelDebug) {
			logx.LogProgress("chunk", n, total, logx.Fields{
				"chunk":  c.index,
				"groups": len(results[c.index]),
			})
		}
	}

	workerCount := min(opts.Workers, len(chunks))
	if workerCount <= 1 {
		for _, c := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			process(c)
		}
	} else if err := runWorkers(ctx, chunks, workerCount, process); err != nil {
		return nil, err
	}

	for _, chunk := range results {
		groups = append(groups, chunk...)
	}
	return groups, nil
}

func runWorkers(ctx context.Context, chunks []chunkRange, workerCount int, process func(chunkRange)) error {
	jobs := make(chan chunkRange, len(chunks))
	group, groupCtx := errgroup.WithContext(ctx)

	// Productor de trabajos
	group.Go(func() error {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case <-groupCtx.Done():
				return nil
			case jobs <- c:
			}
		}
		return nil
	})

	for i := 0; i < workerCount; i++ {
		group.Go(func() error {
			for c := range jobs {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				process(c)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	// El productor sale sin error al cancelarse; ctx lo refleja.
	return ctx.Err()
}

func buildChunk(records []document.Value, cols []tabulate.Column, filter tabulate.Filter, hostOpts hosts.Options) []tabulate.RowGroup {
	var out []tabulate.RowGroup
	for _, record := range records {
		fields := hosts.Extract(record, hostOpts)
		if group, ok := tabulate.Build(fields, cols, filter); ok {
			out = append(out, group)
		}
	}
	return out
}
