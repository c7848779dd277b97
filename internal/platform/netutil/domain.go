package netutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SuffixSource selecciona la tabla de sufijos públicos usada por
// RegistrableDomain.
type SuffixSource string

const (
	// SuffixBuiltin usa la tabla fija de sufijos multi-etiqueta. Es la fuente
	// por defecto y la que produce resultados comparables entre ejecuciones.
	SuffixBuiltin SuffixSource = "builtin"
	// SuffixPublicList usa la Public Suffix List completa de x/net.
	SuffixPublicList SuffixSource = "publicsuffix"
)

// ParseSuffixSource valida el nombre de una fuente de sufijos. La cadena vacía
// equivale a SuffixBuiltin.
func ParseSuffixSource(s string) (SuffixSource, error) {
	switch SuffixSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", SuffixBuiltin:
		return SuffixBuiltin, nil
	case SuffixPublicList:
		return SuffixPublicList, nil
	}
	return "", fmt.Errorf("netutil: fuente de sufijos desconocida %q", s)
}

// multiPartSuffixes es la tabla fija de sufijos públicos de dos etiquetas.
var multiPartSuffixes = []string{
	"co.uk", "ac.uk", "gov.uk", "org.uk", "net.uk",
	"com.au", "net.au", "org.au", "edu.au", "gov.au",
	"co.in", "ac.in", "gov.in", "net.in", "org.in", "res.in",
	"co.jp", "ne.jp", "or.jp",
	"com.br", "com.mx", "com.sg", "com.hk", "com.cn", "edu.cn", "gov.cn",
	"co.za", "org.za",
}

// CleanHost aplica la normalización previa a RegistrableDomain: recorta
// espacios, quita un "." final y un comodín "*." inicial y pasa a minúsculas.
func CleanHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "*.")
	return strings.ToLower(host)
}

// RegistrableDomain reduce host a su dominio registrable (eTLD+1).
// Devuelve false si el host queda vacío o es un literal IP. Se elimina un
// sufijo ":puerto". Los hosts de una sola etiqueta se devuelven tal cual.
//
// Con SuffixBuiltin la decisión se toma sobre las tres últimas etiquetas:
// si terminan en (o son) un sufijo de la tabla fija se devuelven esas tres,
// en otro caso las dos últimas. Con SuffixPublicList se usa
// publicsuffix.EffectiveTLDPlusOne y, si este falla (el host ya es un sufijo
// público, por ejemplo), se devuelve el host limpio.
func RegistrableDomain(host string, source SuffixSource) (string, bool) {
	host = CleanHost(host)
	if host == "" || IsIPLiteral(host) {
		return "", false
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 1 {
		return host, true
	}

	if source == SuffixPublicList {
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && etld1 != "" {
			return etld1, true
		}
		return host, true
	}

	last2 := strings.Join(labels[max(len(labels)-2, 0):], ".")
	last3 := strings.Join(labels[max(len(labels)-3, 0):], ".")
	for _, suffix := range multiPartSuffixes {
		if last3 == suffix || strings.HasSuffix(last3, "."+suffix) {
			return last3, true
		}
	}
	return last2, true
}
