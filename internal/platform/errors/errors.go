// Package errors proporciona tipos de error con contexto y sugerencias para
// que quien consume el motor pueda explicar al usuario qué falló.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorWithSuggestion es un error que incluye una sugerencia para el usuario.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
	Context    map[string]string
}

func (e *ErrorWithSuggestion) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Suggestion != "" {
		b.WriteString("\n\n💡 Sugerencia: ")
		b.WriteString(e.Suggestion)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n\nContexto:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  • %s: %s", k, e.Context[k])
		}
	}
	return b.String()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WithSuggestion envuelve un error con una sugerencia para el usuario.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
		Context:    make(map[string]string),
	}
}

// WithContext añade contexto adicional a un error.
func WithContext(err error, key, value string) error {
	if err == nil {
		return nil
	}

	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		if suggErr.Context == nil {
			suggErr.Context = make(map[string]string)
		}
		suggErr.Context[key] = value
		return err
	}

	return &ErrorWithSuggestion{
		Err:     err,
		Context: map[string]string{key: value},
	}
}

// ConfigurationError representa un error de configuración.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuración inválida para '%s': %s", e.Field, e.Reason)
}

// NewConfigurationError crea un error mejorado para problemas de configuración.
func NewConfigurationError(field, value, reason, suggestion string) error {
	baseErr := &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "field", field)
	if value != "" {
		err = WithContext(err, "value", value)
	}

	return err
}

// InvalidInputError representa un texto de entrada que no se pudo leer o
// decodificar antes de llegar al parser.
type InvalidInputError struct {
	Source string
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	msg := fmt.Sprintf("entrada inválida (%s): %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError crea un error mejorado para entradas ilegibles.
func NewInvalidInputError(source, reason string, err error) error {
	baseErr := &InvalidInputError{
		Source: source,
		Reason: reason,
		Err:    err,
	}

	suggestion := "Comprueba la codificación del fichero (input_encoding: utf-8, gbk, windows-1252)"
	wrapped := WithSuggestion(baseErr, suggestion)
	return WithContext(wrapped, "source", truncate(source, 100))
}

// ExportError representa un fallo al volcar filas a un destino.
type ExportError struct {
	Format string
	Target string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("error exportando %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError crea un error mejorado para fallos de exportación.
func NewExportError(format, target string, err error) error {
	baseErr := &ExportError{
		Format: format,
		Target: target,
		Err:    err,
	}

	wrapped := WithSuggestion(baseErr, "Verifica que el destino exista y tenga permisos de escritura")
	wrapped = WithContext(wrapped, "format", format)
	if target != "" {
		wrapped = WithContext(wrapped, "target", truncate(target, 100))
	}
	return wrapped
}

// truncate limita una cadena a n caracteres, añadiendo "..." si es necesario.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// GetSuggestion extrae la sugerencia de un error si existe.
func GetSuggestion(err error) string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Suggestion
	}
	return ""
}

// GetContext extrae el contexto de un error si existe.
func GetContext(err error) map[string]string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Context
	}
	return nil
}

// IsConfiguration verifica si un error es de configuración.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsInvalidInput verifica si un error es por entrada ilegible.
func IsInvalidInput(err error) bool {
	var inputErr *InvalidInputError
	return errors.As(err, &inputErr)
}

// IsExport verifica si un error proviene de una exportación.
func IsExport(err error) bool {
	var exportErr *ExportError
	return errors.As(err, &exportErr)
}
