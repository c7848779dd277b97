package logx

import (
	"io"
	"os"

	"golang.org/x/term"
)

// OutputConfig describe el destino de los logs
type OutputConfig struct {
	IsTTY   bool
	NoColor bool
}

// DetectOutput detecta si el writer es un terminal. NO_COLOR desactiva los
// colores aunque lo sea.
func DetectOutput(w io.Writer) OutputConfig {
	tty := IsTerminal(w)
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	return OutputConfig{
		IsTTY:   tty,
		NoColor: !tty || noColorEnv,
	}
}

// IsTerminal verifica si el writer está conectado a un terminal
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
