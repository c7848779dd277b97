package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scan-rows/internal/core/recovery"
	"scan-rows/internal/core/tabulate"
	"scan-rows/internal/platform/config"
	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
)

func allFields() tabulate.Selection {
	return tabulate.Selection{
		IP: true, Domain: true, Ports: true, City: true, Org: true, Vulns: true,
		CVSS: true, ProductAndTech: true, Versions: true, Timestamp: true,
	}
}

func optionsWith(sel tabulate.Selection) Options {
	opts := DefaultOptions()
	opts.Selection = sel
	return opts
}

func TestProcessStrictExample(t *testing.T) {
	t.Parallel()

	// Las columnas siguen el orden fijo de la tabla (Ports antes que
	// Organization), no el orden en que se enumeran los campos.
	raw := `[{"ip_str":"1.2.3.4","org":"Acme","port":80}]`
	res, err := Process(context.Background(), raw, optionsWith(tabulate.Selection{IP: true, Org: true, Ports: true}), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if diff := cmp.Diff([]string{"IP", "Ports", "Organization"}, res.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	want := []tabulate.RowGroup{{Rows: [][]string{{"1.2.3.4", "80", "Acme"}}}}
	if diff := cmp.Diff(want, res.Groups); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if res.FixedText != "" {
		t.Fatalf("strict input should not produce fixed text, got %q", res.FixedText)
	}
	if res.Strategy != recovery.StrategyStrict {
		t.Fatalf("expected strict strategy, got %q", res.Strategy)
	}

	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	wantJSON := `{"headers":["IP","Ports","Organization"],"groups":[{"rows":[["1.2.3.4","80","Acme"]]}],` +
		`"summary":{"ips":1,"orgs":1,"ports":1},"strategy":"strict","hosts":1}`
	if string(out) != wantJSON {
		t.Fatalf("Marshal() =\n%s\nwant\n%s", out, wantJSON)
	}
}

// No corre en paralelo: cambia el logger global.
func TestProcessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	prev := logx.GetLevel()
	logx.SetJSON(true)
	logx.SetOutput(&buf)
	logx.SetLevel(logx.LevelInfo)
	t.Cleanup(func() {
		logx.SetJSON(false)
		logx.SetOutput(nil)
		logx.SetLevel(prev)
	})

	if _, err := Process(context.Background(), `[{"ip_str":"1.2.3.4"}]`, DefaultOptions(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("successful run should be silent at info, got %s", buf.String())
	}

	if _, err := Process(context.Background(), "{\"a\":\n  [1, 2", DefaultOptions(), nil); err == nil {
		t.Fatal("expected parse error")
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", lines[0], err)
	}
	if entry["level"] != "warn" || entry["message"] != "process failed" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestProcessTrailingCommaExample(t *testing.T) {
	t.Parallel()

	res, err := Process(context.Background(), `{"a":1,}`, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if want := "{\n  \"a\": 1\n}"; res.FixedText != want {
		t.Fatalf("FixedText = %q, want %q", res.FixedText, want)
	}
	if res.Hosts != 1 {
		t.Fatalf("expected the wrapped object to count as one host, got %d", res.Hosts)
	}
}

func TestProcessSharedPortExample(t *testing.T) {
	t.Parallel()

	raw := `[{"ip_str":"1.1.1.1","port":22},{"ip_str":"2.2.2.2","port":22}]`
	res, err := Process(context.Background(), raw, optionsWith(tabulate.Selection{IP: true, Ports: true}), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := tabulate.Summary{tabulate.ColumnIP: 2, tabulate.ColumnPorts: 1}
	if diff := cmp.Diff(want, res.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessConcatenatedExample(t *testing.T) {
	t.Parallel()

	res, err := Process(context.Background(), "{\"a\":1}\n{\"b\":2}", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := "[\n  {\n    \"a\": 1\n  },\n  {\n    \"b\": 2\n  }\n]"
	if res.FixedText != want {
		t.Fatalf("FixedText = %q, want %q", res.FixedText, want)
	}
	if res.Hosts != 2 {
		t.Fatalf("expected 2 hosts, got %d", res.Hosts)
	}
}

func TestProcessDomainExample(t *testing.T) {
	t.Parallel()

	raw := `[{"ip_str":"5.5.5.5","hostnames":["www.example.co.uk"]}]`
	res, err := Process(context.Background(), raw, optionsWith(tabulate.Selection{Domain: true}), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []tabulate.RowGroup{{Rows: [][]string{{"example.co.uk"}}}}
	if diff := cmp.Diff(want, res.Groups); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessIncludeFilterExample(t *testing.T) {
	t.Parallel()

	raw := `[{"ip_str":"1.1.1.1","port":80,"data":[{"port":443}]},{"ip_str":"2.2.2.2","port":22}]`
	opts := optionsWith(tabulate.Selection{IP: true, Ports: true})
	opts.Include = "443"

	res, err := Process(context.Background(), raw, opts, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []tabulate.RowGroup{{Rows: [][]string{{"", "443"}}}}
	if diff := cmp.Diff(want, res.Groups); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if got := res.Summary.Count(tabulate.ColumnIP); got != 0 {
		t.Fatalf("filtered IP should not be counted, got %d", got)
	}
}

func TestProcessUnrecoverable(t *testing.T) {
	t.Parallel()

	_, err := Process(context.Background(), "{\"a\":\n  [1, 2", DefaultOptions(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, recovery.ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %v", err)
	}
	var syn *recovery.SyntaxError
	if !errors.As(err, &syn) {
		t.Fatalf("expected *recovery.SyntaxError, got %T", err)
	}
	if syn.Line != 2 {
		t.Fatalf("expected line 2, got %d", syn.Line)
	}
	if !strings.Contains(apperrors.GetSuggestion(err), "línea 2") {
		t.Fatalf("suggestion should name the line, got %q", apperrors.GetSuggestion(err))
	}
}

func TestProcessEmptyAndNonObjects(t *testing.T) {
	t.Parallel()

	res, err := Process(context.Background(), `[]`, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Hosts != 0 || len(res.Groups) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if len(res.Headers) == 0 {
		t.Fatal("headers should still be present for an empty result")
	}

	res, err = Process(context.Background(), `[1, "x", null, {"ip_str":"9.9.9.9"}]`, optionsWith(tabulate.Selection{IP: true}), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Hosts != 1 {
		t.Fatalf("expected only the object to count, got %d hosts", res.Hosts)
	}
	if diff := cmp.Diff([]tabulate.RowGroup{{Rows: [][]string{{"9.9.9.9"}}}}, res.Groups); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}

	res, err = Process(context.Background(), `[{"ip_str":"9.9.9.9"}]`, optionsWith(tabulate.Selection{}), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Groups) != 0 || len(res.Headers) != 0 {
		t.Fatalf("no columns should produce no groups, got %+v", res)
	}
}

func TestProcessCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Process(ctx, syntheticHosts(10), DefaultOptions(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// syntheticHosts genera n registros variados con vulnerabilidades,
// productos y dominios repetidos entre hosts.
func syntheticHosts(n int) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, `{"ip_str":"10.0.%d.%d","org":"Org%d","port":%d,`, i/256, i%256, i%5, 80+i%3)
		fmt.Fprintf(&b, `"hostnames":["h%d.example.com","www.site%d.co.uk"],`, i, i%4)
		fmt.Fprintf(&b, `"location":{"city":"City%d"},"last_update":"2024-01-%02d",`, i%3, 1+i%28)
		fmt.Fprintf(&b, `"data":[{"port":%d,"product":"nginx/1.%d"},{"port":22,"product":"OpenSSH","version":"8.%d"}],`, 8000+i%7, i%4, i%2)
		b.WriteString(`"http":{"components":{"PHP":{},"jQuery":{}}},`)
		fmt.Fprintf(&b, `"vulns":{"CVE-2021-%04d":{"cvss":%d.5},"cve-2020-1234":{}}}`, i%50, i%10)
	}
	b.WriteString("]")
	return b.String()
}

func TestProcessChunkingDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	raw := syntheticHosts(250)
	base := optionsWith(allFields())
	base.Include = "nginx"
	base.Exclude = "8003"

	variants := []struct {
		chunk   int
		workers int
	}{
		{100, 1},
		{1, 1},
		{7, 4},
		{1000, 8},
		{13, 3},
	}

	var reference *Result
	for _, v := range variants {
		opts := base
		opts.ChunkSize = v.chunk
		opts.Workers = v.workers
		res, err := Process(context.Background(), raw, opts, nil)
		if err != nil {
			t.Fatalf("Process(chunk=%d, workers=%d): %v", v.chunk, v.workers, err)
		}
		if reference == nil {
			reference = res
			continue
		}
		if diff := cmp.Diff(reference, res); diff != "" {
			t.Fatalf("chunk=%d workers=%d changed the result (-want +got):\n%s", v.chunk, v.workers, diff)
		}
	}
	if len(reference.Groups) == 0 {
		t.Fatal("expected some groups to survive the filter")
	}
}

func TestProcessDeterministic(t *testing.T) {
	t.Parallel()

	raw := syntheticHosts(40)
	opts := optionsWith(allFields())
	first, err := Process(context.Background(), raw, opts, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want, _ := json.Marshal(first)
	for i := 0; i < 3; i++ {
		res, err := Process(context.Background(), raw, opts, nil)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		got, _ := json.Marshal(res)
		if string(got) != string(want) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestProcessTableInvariants(t *testing.T) {
	t.Parallel()

	opts := optionsWith(allFields())
	opts.Workers = 3
	opts.ChunkSize = 9
	res, err := Process(context.Background(), syntheticHosts(60), opts, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	sets := make([]map[string]struct{}, len(res.Columns))
	for i := range sets {
		sets[i] = map[string]struct{}{}
	}
	for gi, g := range res.Groups {
		for ri, row := range g.Rows {
			if len(row) != len(res.Headers) {
				t.Fatalf("group %d row %d has %d cells, want %d", gi, ri, len(row), len(res.Headers))
			}
			for ci, col := range res.Columns {
				if ri > 0 && col.Singleton() && row[ci] != "" {
					t.Fatalf("group %d row %d holds singleton %s = %q", gi, ri, col, row[ci])
				}
				if row[ci] != "" {
					sets[ci][row[ci]] = struct{}{}
				}
			}
		}
	}
	for ci, col := range res.Columns {
		if got, want := res.Summary.Count(col), len(sets[ci]); got != want {
			t.Fatalf("summary[%s] = %d, want %d", col, got, want)
		}
	}
	if res.Summary.Count(tabulate.ColumnWebTech) != 2 {
		t.Fatalf("expected php and jquery, got %d", res.Summary.Count(tabulate.ColumnWebTech))
	}
}

func TestProcessProgress(t *testing.T) {
	t.Parallel()

	var got []int
	opts := DefaultOptions()
	opts.ChunkSize = 5
	opts.Workers = 4
	_, err := Process(context.Background(), syntheticHosts(50), opts, func(p int) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(got) < 4 {
		t.Fatalf("expected several progress values, got %v", got)
	}
	if got[0] != 0 || got[len(got)-1] != 100 {
		t.Fatalf("progress should go from 0 to 100, got %v", got)
	}
	seen35 := false
	for i, p := range got {
		if p < 0 || p > 100 {
			t.Fatalf("progress out of range: %v", got)
		}
		if i > 0 && p <= got[i-1] {
			t.Fatalf("progress not increasing: %v", got)
		}
		seen35 = seen35 || p == 35
	}
	if !seen35 {
		t.Fatalf("expected the parse milestone 35 in %v", got)
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(DefaultOptions(), FromConfig(config.Default())); diff != "" {
		t.Fatalf("default options mismatch (-want +got):\n%s", diff)
	}

	cfg := config.Default()
	cfg.Fields.City = true
	cfg.Include = []string{"nginx", "443"}
	cfg.SuffixSource = "publicsuffix"
	cfg.Workers = 4
	opts := FromConfig(cfg)
	if !opts.Selection.City || opts.Include != "nginx;443" || opts.Workers != 4 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.Hosts.SuffixSource != "publicsuffix" {
		t.Fatalf("unexpected suffix source %q", opts.Hosts.SuffixSource)
	}
}
