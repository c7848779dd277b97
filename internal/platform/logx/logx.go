package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level representa el nivel de logging
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// Fields representa pares clave-valor para structured logging
type Fields map[string]any

// Config gestiona la configuración global del logger
type Config struct {
	mu        sync.RWMutex
	logger    zerolog.Logger
	level     Level
	outputCfg OutputConfig
	json      bool
	out       io.Writer
}

var cfg = newConfig(os.Stderr)

func newConfig(w io.Writer) *Config {
	c := &Config{level: LevelInfo, out: w}
	c.rebuild()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return c
}

// rebuild recrea el logger a partir de la salida y el modo actuales. Debe
// llamarse con mu tomado (o antes de publicar la configuración).
func (c *Config) rebuild() {
	c.outputCfg = DetectOutput(c.out)
	if c.json {
		c.logger = zerolog.New(c.out).With().Timestamp().Logger()
		return
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        c.out,
		TimeFormat: "15:04:05",
		NoColor:    c.outputCfg.NoColor,
	}).With().Timestamp().Logger()
}

// Muestreo por etapa para los mensajes de debug más repetitivos.
var sampleRates = map[string]int{
	"chunk": 10,
}

var sampleState = struct {
	sync.Mutex
	counters map[string]int64
}{counters: make(map[string]int64)}

// SetLevel cambia el nivel mínimo de logging
func SetLevel(l Level) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.level = l

	var zlevel zerolog.Level
	switch l {
	case LevelError:
		zlevel = zerolog.ErrorLevel
	case LevelWarn:
		zlevel = zerolog.WarnLevel
	case LevelInfo:
		zlevel = zerolog.InfoLevel
	case LevelDebug:
		zlevel = zerolog.DebugLevel
	case LevelTrace:
		zlevel = zerolog.TraceLevel
	default:
		zlevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(zlevel)
}

// ParseLevel convierte string a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return 0, fmt.Errorf("logx: nivel desconocido %q", s)
	}
}

// SetOutput redirige la salida del logger. Los colores se desactivan si el
// destino no es un terminal.
func SetOutput(w io.Writer) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	cfg.out = w
	cfg.rebuild()
}

// SetJSON habilita output JSON estructurado
func SetJSON(enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.json = enabled
	cfg.rebuild()
}

// GetLevel retorna el nivel actual de logging
func GetLevel() Level {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.level
}

// Enabled indica si un mensaje del nivel dado llegaría a emitirse. Sirve
// para no calcular campos caros que luego se descartarían.
func Enabled(l Level) bool {
	return l <= GetLevel()
}

func current() zerolog.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.logger
}

// Warnf loggea un aviso con formato printf.
func Warnf(format string, a ...any) { l := current(); l.Warn().Msgf(format, a...) }

// Funciones con fields estructurados
func Info(msg string, fields Fields) { logFields(LevelInfo, msg, fields) }
func Debug(msg string, fields Fields) { logFields(LevelDebug, msg, fields) }

func logFields(lvl Level, msg string, fields Fields) {
	if shouldSampleFields(lvl, fields) {
		return
	}
	logger := current()

	var event *zerolog.Event
	switch lvl {
	case LevelError:
		event = logger.Error()
	case LevelWarn:
		event = logger.Warn()
	case LevelInfo:
		event = logger.Info()
	case LevelDebug:
		event = logger.Debug()
	default:
		event = logger.Trace()
	}
	if len(fields) > 0 {
		event = event.Fields(map[string]any(fields))
	}
	event.Msg(msg)
}

// shouldSampleFields descarta parte de los mensajes debug de etapas ruidosas
func shouldSampleFields(lvl Level, fields Fields) bool {
	if lvl < LevelDebug || len(fields) == 0 {
		return false
	}
	stageRaw, ok := fields["stage"]
	if !ok {
		return false
	}
	stage, ok := stageRaw.(string)
	if !ok {
		return false
	}
	stage = strings.ToLower(strings.TrimSpace(stage))
	rate, ok := sampleRates[stage]
	if !ok || rate <= 1 {
		return false
	}
	sampleState.Lock()
	defer sampleState.Unlock()
	count := sampleState.counters[stage] + 1
	sampleState.counters[stage] = count
	return count%int64(rate) != 1
}
