package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrUnrecoverable indica que ni el parseo estricto ni ninguna reparación
// produjeron JSON válido.
var ErrUnrecoverable = errors.New("recovery: JSON irrecuperable")

// SyntaxError es el diagnóstico devuelto cuando el texto no se pudo recuperar.
// Line y Col son 1-based y valen 0 si no se pudieron determinar; Offset vale
// -1 si el parser no informó posición.
type SyntaxError struct {
	Message string
	Line    int
	Col     int
	Offset  int
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("JSON inválido (línea %d, columna %d): %s", e.Line, e.Col, e.Message)
	}
	return "JSON inválido: " + e.Message
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrUnrecoverable).
func (e *SyntaxError) Is(target error) bool { return target == ErrUnrecoverable }

var (
	positionRe   = regexp.MustCompile(`(?i)position\s+(\d+)`)
	lineColumnRe = regexp.MustCompile(`(?i)line\s+(\d+)\s+column\s+(\d+)`)
)

// diagnose construye el SyntaxError para el error del parseo estricto de text.
func diagnose(text string, err error) *SyntaxError {
	diag := &SyntaxError{Message: err.Error(), Offset: -1, Err: err}

	var syn *json.SyntaxError
	switch {
	case errors.As(err, &syn):
		// Offset cuenta los bytes leídos incluido el carácter culpable.
		diag.Offset = max(int(syn.Offset)-1, 0)
	default:
		if m := positionRe.FindStringSubmatch(diag.Message); m != nil {
			if pos, convErr := strconv.Atoi(m[1]); convErr == nil {
				diag.Offset = pos
			}
		}
	}

	if m := lineColumnRe.FindStringSubmatch(diag.Message); m != nil {
		diag.Line, _ = strconv.Atoi(m[1])
		diag.Col, _ = strconv.Atoi(m[2])
		return diag
	}
	if diag.Offset >= 0 {
		diag.Line, diag.Col = lineCol(text, diag.Offset)
	}
	return diag
}

// lineCol convierte un offset en bytes a línea y columna 1-based, contando
// columnas en caracteres.
func lineCol(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	line, col := 1, 1
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
