// Package hosts extrae, de un registro de host escaneado, las listas de
// valores por campo (IP, dominios, puertos, vulnerabilidades, productos...)
// que después se proyectan en filas.
//
// Los registros llegan sin esquema: cualquier campo puede faltar o tener un
// tipo inesperado. Extract nunca falla; lo que no encaja se trata como
// ausente.
package hosts

import (
	"math"
	"strconv"
	"strings"

	"scan-rows/internal/core/document"
	"scan-rows/internal/platform/netutil"
)

// Options ajusta la extracción.
type Options struct {
	// CountIPLikeDomains conserva como dominio los valores con forma de IP.
	CountIPLikeDomains bool
	// SuffixSource elige la tabla de sufijos para reducir dominios.
	SuffixSource netutil.SuffixSource
	// ExtractVersions deduce la versión del nombre del producto cuando el
	// registro no la trae explícita.
	ExtractVersions bool
}

// DefaultOptions devuelve las opciones habituales.
func DefaultOptions() Options {
	return Options{SuffixSource: netutil.SuffixBuiltin, ExtractVersions: true}
}

// Product es un producto detectado con la versión asociada (vacía si no se
// conoce).
type Product struct {
	Name    string
	Version string
}

// Fields son los valores de un host, ya normalizados y sin duplicados, en
// orden de primera aparición.
type Fields struct {
	IP        string
	Org       string
	Domains   []string
	Ports     []string
	City      string
	Vulns     []Vuln
	Products  []Product
	WebTech   []string
	Timestamp string
}

// Extract calcula los Fields de un registro. Un registro que no sea un
// objeto produce Fields vacíos.
func Extract(record document.Value, opts Options) Fields {
	if record.Kind() != document.Object {
		return Fields{}
	}

	return Fields{
		IP:        extractIP(record),
		Org:       firstText(record, "org", "isp", "asn"),
		Domains:   extractDomains(record, opts),
		Ports:     extractPorts(record),
		City:      truthyText(record.Path("location", "city")),
		Vulns:     collectVulns(record),
		Products:  extractProducts(record, opts.ExtractVersions),
		WebTech:   extractWebTech(record),
		Timestamp: firstText(record, "last_update", "timestamp", "last_seen"),
	}
}

func extractIP(record document.Value) string {
	if s := truthyText(record.Path("ip_str")); s != "" {
		return s
	}
	ip := record.Path("ip")
	if f, ok := ip.Float(); ok {
		return netutil.IntToIPv4(toUint32(f))
	}
	return ""
}

// toUint32 aplica la conversión ToUint32 de ECMAScript (truncado y módulo 2^32),
// la misma que `ip >>> 0`.
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	const modulus = 1 << 32
	m := math.Mod(math.Trunc(f), modulus)
	if m < 0 {
		m += modulus
	}
	return uint32(m)
}

func extractDomains(record document.Value, opts Options) []string {
	var raw []string
	for _, key := range []string{"hostnames", "domains"} {
		for _, item := range record.Path(key).Items() {
			if s := truthyText(item); s != "" {
				raw = append(raw, s)
			}
		}
	}
	if s := truthyText(record.Path("http", "host")); s != "" {
		raw = append(raw, s)
	}

	var set orderedSet
	for _, host := range raw {
		root, ok := netutil.RegistrableDomain(host, opts.SuffixSource)
		if !ok {
			continue
		}
		if !opts.CountIPLikeDomains && netutil.IsIPLiteral(root) {
			continue
		}
		set.add(root)
	}
	return set.values()
}

func extractPorts(record document.Value) []string {
	var set orderedSet
	set.add(portText(record.Path("port")))
	for _, svc := range record.Path("data").Items() {
		set.add(portText(svc.Path("port")))
	}
	return set.values()
}

// portText acepta números y strings con un entero; el resto se descarta.
func portText(v document.Value) string {
	switch v.Kind() {
	case document.Number:
		s, _ := v.Text()
		return s
	case document.String:
		s, _ := v.Str()
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return ""
		}
		return strconv.Itoa(n)
	}
	return ""
}

func extractProducts(record document.Value, extractVersions bool) []Product {
	var all []Product
	for _, svc := range record.Path("data").Items() {
		name := truthyText(svc.Path("product"))
		if name == "" {
			continue
		}
		version := truthyText(svc.Path("version"))
		if version == "" && extractVersions {
			version = ExtractVersion(name)
		}
		all = append(all, Product{Name: name, Version: version})
	}
	if server := truthyText(record.Path("http", "server")); server != "" {
		version := ""
		if extractVersions {
			version = ExtractVersion(server)
		}
		all = append(all, Product{Name: server, Version: version})
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]Product, 0, len(all))
	for _, p := range all {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func extractWebTech(record document.Value) []string {
	var set orderedSet
	for _, name := range record.Path("http", "components").Keys() {
		set.add(strings.ToLower(strings.TrimSpace(name)))
	}
	return set.values()
}

// firstText devuelve el primer campo con valor verdadero entre keys.
func firstText(record document.Value, keys ...string) string {
	for _, key := range keys {
		if s := truthyText(record.Path(key)); s != "" {
			return s
		}
	}
	return ""
}

// truthyText devuelve el texto de un escalar con valor verdadero. null, false,
// 0, "" y los valores compuestos producen "".
func truthyText(v document.Value) string {
	if !v.Truthy() {
		return ""
	}
	s, ok := v.Text()
	if !ok {
		return ""
	}
	return s
}

// orderedSet conserva el orden de inserción e ignora vacíos y duplicados.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	return s.items
}
