package logx

import (
	"fmt"
	"time"
)

// LogStage loggea con el campo "stage" pre-agregado para facilitar filtrado.
func LogStage(level Level, stage, msg string, extraFields ...Fields) {
	fields := Fields{"stage": stage}
	for _, extra := range extraFields {
		for k, v := range extra {
			fields[k] = v
		}
	}
	logFields(level, msg, fields)
}

// StageDebugf es un atajo para debug de una etapa.
func StageDebugf(stage, format string, a ...any) {
	LogStage(LevelDebug, stage, fmt.Sprintf(format, a...))
}

// TimedOperation loggea el inicio y fin de una operación con su duración.
type TimedOperation struct {
	stage     string
	operation string
	start     time.Time
	fields    Fields
}

// StartOperation inicia el tracking de una operación.
func StartOperation(stage, operation string, fields ...Fields) *TimedOperation {
	op := &TimedOperation{
		stage:     stage,
		operation: operation,
		start:     time.Now(),
		fields:    Fields{},
	}
	for _, f := range fields {
		for k, v := range f {
			op.fields[k] = v
		}
	}

	LogStage(LevelDebug, stage, operation+" started", op.fields)
	return op
}

func (op *TimedOperation) stamp() {
	d := time.Since(op.start)
	op.fields["duration_ms"] = d.Milliseconds()
	op.fields["duration"] = FormatDuration(d)
}

// Complete marca la operación como completada y loggea la duración en debug.
func (op *TimedOperation) Complete() {
	op.stamp()
	LogStage(LevelDebug, op.stage, op.operation+" completed", op.fields)
}

// Fail marca la operación como fallida. Se loggea como aviso: los fallos
// que llegan aquí vienen de la entrada o de una cancelación, no del proceso.
func (op *TimedOperation) Fail(err error) {
	op.stamp()
	if err != nil {
		op.fields["error"] = err.Error()
	}
	LogStage(LevelWarn, op.stage, op.operation+" failed", op.fields)
}

// AddField añade un campo adicional a la operación.
func (op *TimedOperation) AddField(key string, value any) {
	if op.fields == nil {
		op.fields = Fields{}
	}
	op.fields[key] = value
}

// LogProgress loggea progreso de una operación larga.
func LogProgress(stage string, current, total int64, extra ...Fields) {
	if total <= 0 {
		return
	}
	percent := float64(current) / float64(total) * 100
	fields := Fields{
		"current": current,
		"total":   total,
		"percent": fmt.Sprintf("%.1f%%", percent),
	}
	for _, e := range extra {
		for k, v := range e {
			fields[k] = v
		}
	}
	LogStage(LevelDebug, stage, "progress", fields)
}
