// Package recovery convierte texto JSON posiblemente defectuoso en un valor
// estructurado: primero intenta un parseo estricto y, si falla, aplica una
// cadena ordenada de reparaciones heurísticas.
package recovery

import (
	"regexp"
	"strings"

	"scan-rows/internal/core/document"
	"scan-rows/internal/platform/logx"
)

// Strategy identifica qué paso produjo el valor.
type Strategy string

const (
	StrategyStrict          Strategy = "strict"
	StrategyJSONLines       Strategy = "json-lines"
	StrategyQuotesComments  Strategy = "quotes-comments"
	StrategyQuoting         Strategy = "quoting"
	StrategyTrailingCommas  Strategy = "trailing-commas"
	StrategyConcatenated    Strategy = "concatenated-objects"
	StrategyNewlineObjects  Strategy = "newline-objects"
	StrategyBlankLineChunks Strategy = "blank-line-chunks"
)

// Result es el resultado de un parseo correcto.
type Result struct {
	Value document.Value
	// Fixed indica que hizo falta alguna reparación.
	Fixed bool
	// Text es el texto original si no hubo reparación, o la forma indentada
	// (dos espacios) del valor recuperado en caso contrario.
	Text     string
	Strategy Strategy
}

type attempt struct {
	strategy Strategy
	apply    func(string) (string, bool)
}

func changed(fn func(string) string) func(string) (string, bool) {
	return func(s string) (string, bool) {
		out := fn(s)
		return out, out != s
	}
}

// Orden fijo: cada paso trabaja sobre el texto acumulado por los anteriores.
var attempts = []attempt{
	{StrategyQuotesComments, changed(func(s string) string {
		return StripComments(NormalizeSmartQuotes(s))
	})},
	{StrategyQuoting, changed(func(s string) string {
		return QuoteUnquotedKeys(SingleToDoubleQuotes(s))
	})},
	{StrategyTrailingCommas, changed(RemoveTrailingCommas)},
	{StrategyConcatenated, changed(FixConcatenatedObjects)},
	{StrategyNewlineObjects, WrapNewlineObjects},
}

var (
	lineSplitRe  = regexp.MustCompile(`\r?\n`)
	blankSplitRe = regexp.MustCompile(`\n\s*\n`)
)

// Parse interpreta text. Devuelve *SyntaxError (que cumple
// errors.Is(err, ErrUnrecoverable)) si ningún intento produce JSON válido; el
// diagnóstico siempre describe el fallo del parseo estricto del texto original.
func Parse(text string) (*Result, error) {
	v, strictErr := document.Decode([]byte(text))
	if strictErr == nil {
		return &Result{Value: v, Text: text, Strategy: StrategyStrict}, nil
	}
	logx.Debug("Parseo estricto fallido, intentando reparaciones", logx.Fields{
		"stage": "parse",
		"error": strictErr.Error(),
		"bytes": len(text),
	})

	if items, ok := parseParts(lineSplitRe.Split(text, -1)); ok {
		return fixedResult(document.NewArray(items...), StrategyJSONLines)
	}

	current := text
	for _, at := range attempts {
		next, ok := at.apply(current)
		if !ok {
			continue
		}
		current = next
		v, err := document.Decode([]byte(current))
		if err != nil {
			logx.StageDebugf("parse", "reparación %s insuficiente", at.strategy)
			continue
		}
		return fixedResult(v, at.strategy)
	}

	if items, ok := parseParts(blankSplitRe.Split(text, -1)); ok {
		return fixedResult(document.NewArray(items...), StrategyBlankLineChunks)
	}

	return nil, diagnose(text, strictErr)
}

// parseParts parsea cada fragmento no vacío por separado. Solo tiene éxito si
// hay más de uno y todos son JSON válido.
func parseParts(parts []string) ([]document.Value, bool) {
	var items []document.Value
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := document.Decode([]byte(part))
		if err != nil {
			return nil, false
		}
		items = append(items, v)
	}
	if len(items) <= 1 {
		return nil, false
	}
	return items, true
}

func fixedResult(v document.Value, strategy Strategy) (*Result, error) {
	text, err := document.Indent(v)
	if err != nil {
		return nil, err
	}
	logx.Debug("JSON recuperado", logx.Fields{"stage": "parse", "strategy": string(strategy)})
	return &Result{Value: v, Fixed: true, Text: text, Strategy: strategy}, nil
}
