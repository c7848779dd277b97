package recovery

import (
	"regexp"
	"strings"
)

// Reparaciones textuales puras. Cada una devuelve el texto sin cambios cuando
// no encuentra nada que reparar; Parse usa esa igualdad para saltarse el
// reintento.

var smartQuotes = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`, "\u2033", `"`,
	"\u2018", "'", "\u2019", "'", "\u2032", "'",
)

var (
	// "//" precedido de ":" se respeta para no romper URLs.
	lineCommentRe  = regexp.MustCompile(`(?m)(^|[^:])//[^\r\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-.$]*)(\s*:)`)
	singleQuotedRe  = regexp.MustCompile(`'([^'\\]*(\\.[^'\\]*)*)'`)

	adjacentObjectsRe = regexp.MustCompile(`\}\s*\{(\s*")`)
	objectListRe      = regexp.MustCompile(`(?s)^\s*\{.*\}\s*,\s*\{.*\}\s*$`)
	singleObjectRe    = regexp.MustCompile(`(?s)^\s*\{.*\}\s*$`)
	newlineObjectsRe  = regexp.MustCompile(`\}\s*\n\s*\{`)
)

// NormalizeSmartQuotes sustituye comillas tipográficas por comillas ASCII.
func NormalizeSmartQuotes(s string) string {
	return smartQuotes.Replace(s)
}

// StripComments elimina comentarios de línea (// ...) y de bloque (/* ... */).
// Un "//" dentro de un string que no vaya precedido de ":" también se elimina.
func StripComments(s string) string {
	s = lineCommentRe.ReplaceAllString(s, "${1}")
	return blockCommentRe.ReplaceAllString(s, "")
}

// RemoveTrailingCommas quita comas colgantes delante de } o ].
func RemoveTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "${1}")
}

// QuoteUnquotedKeys entrecomilla claves con forma de identificador.
func QuoteUnquotedKeys(s string) string {
	return unquotedKeyRe.ReplaceAllString(s, `${1}"${2}"${3}`)
}

// SingleToDoubleQuotes convierte literales con comilla simple a comilla doble,
// escapando las comillas dobles que contengan.
func SingleToDoubleQuotes(s string) string {
	return singleQuotedRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[1 : len(m)-1]
		return `"` + strings.ReplaceAll(inner, `"`, `\"`) + `"`
	})
}

// FixConcatenatedObjects separa con comas objetos pegados ({..}{"..) y, si el
// resultado es una lista de objetos sin array, la envuelve en [...].
func FixConcatenatedObjects(s string) string {
	joined := adjacentObjectsRe.ReplaceAllString(s, "},\n{${1}")
	if objectListRe.MatchString(joined) {
		return "[" + joined + "]"
	}
	return joined
}

// WrapNewlineObjects es el último recurso: si el texto no es un único objeto
// y contiene objetos separados por saltos de línea, los une en un array.
func WrapNewlineObjects(s string) (string, bool) {
	if singleObjectRe.MatchString(s) || !strings.Contains(s, "}\n{") {
		return s, false
	}
	return "[" + newlineObjectsRe.ReplaceAllString(s, "},\n{") + "]", true
}
