package hosts

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"scan-rows/internal/core/document"
)

// Vuln es un identificador de vulnerabilidad con su puntuación CVSS, vacía
// si ninguna fuente la informó.
type Vuln struct {
	ID    string
	Score string
}

var cveRe = regexp.MustCompile(`(?i)^cve-\d{4}-\d{4,7}$`)

// NormalizeVulnID recorta el identificador y pasa a mayúsculas los CVE; el
// resto se conserva tal cual.
func NormalizeVulnID(id string) string {
	id = strings.TrimSpace(id)
	if cveRe.MatchString(id) {
		return strings.ToUpper(id)
	}
	return id
}

// vulnSet acumula vulnerabilidades en orden de aparición. La primera
// puntuación encontrada para un identificador es la definitiva.
type vulnSet struct {
	index map[string]int
	items []Vuln
}

func (s *vulnSet) add(id, score string) {
	id = NormalizeVulnID(id)
	if id == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[id]; ok {
		if s.items[i].Score == "" {
			s.items[i].Score = score
		}
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, Vuln{ID: id, Score: score})
}

// collectVulns recorre el host y cada entrada de data. En cada entidad se
// leen vulns, opts.vulns, vuln y opts.vuln.
func collectVulns(record document.Value) []Vuln {
	var set vulnSet
	collectEntity(&set, record)
	for _, svc := range record.Path("data").Items() {
		collectEntity(&set, svc)
	}
	return set.items
}

func collectEntity(set *vulnSet, ent document.Value) {
	if ent.Kind() != document.Object {
		return
	}
	for _, path := range [][]string{
		{"vulns"},
		{"opts", "vulns"},
		{"vuln"},
		{"opts", "vuln"},
	} {
		readVulnShape(set, ent.Path(path...))
	}
}

// readVulnShape admite las tres formas conocidas: lista de identificadores,
// mapa identificador -> detalle, o un único string.
func readVulnShape(set *vulnSet, v document.Value) {
	switch v.Kind() {
	case document.Array:
		for _, item := range v.Items() {
			if id := truthyText(item); id != "" {
				set.add(id, "")
			}
		}
	case document.Object:
		for _, id := range v.Keys() {
			detail, _ := v.Get(id)
			set.add(id, vulnScore(detail))
		}
	case document.String:
		id, _ := v.Str()
		set.add(id, "")
	}
}

// vulnScore lee cvss o, en su defecto, cvssv3.base_score. Acepta números y
// strings numéricos.
func vulnScore(detail document.Value) string {
	if s := scoreText(detail.Path("cvss")); s != "" {
		return s
	}
	return scoreText(detail.Path("cvssv3", "base_score"))
}

func scoreText(v document.Value) string {
	switch v.Kind() {
	case document.Number:
		s, _ := v.Text()
		return s
	case document.String:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return ""
		}
		return document.FormatNumber(s)
	}
	return ""
}
