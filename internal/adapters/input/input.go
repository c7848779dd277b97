// Package input obtiene el texto que consume el motor: lee bytes de un
// fichero o reader y los decodifica a UTF-8.
package input

import (
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"scan-rows/internal/platform/config"
	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode convierte raw a texto según encoding (ver config.Encoding*). En modo
// auto se respeta el BOM si lo hay; sin BOM, el texto UTF-8 válido se deja
// tal cual y el resto se interpreta como GBK.
func Decode(raw []byte, encodingName string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encodingName)) {
	case "", config.EncodingAuto:
		return decodeAuto(raw)
	case config.EncodingUTF8:
		if hasUnicodeBOM(raw) {
			return decodeWith(raw, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		}
		if !utf8.Valid(raw) {
			return "", apperrors.NewInvalidInputError("utf-8", "secuencia UTF-8 inválida", nil)
		}
		return string(raw), nil
	case config.EncodingGBK:
		return decodeWith(raw, simplifiedchinese.GBK.NewDecoder())
	case config.EncodingWindows1252:
		return decodeWith(raw, charmap.Windows1252.NewDecoder())
	default:
		return "", apperrors.NewInvalidInputError(encodingName, "codificación no soportada", nil)
	}
}

func decodeAuto(raw []byte) (string, error) {
	if hasUnicodeBOM(raw) {
		return decodeWith(raw, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	logx.Warnf("Entrada no UTF-8 (%d bytes), decodificando como GBK", len(raw))
	return decodeWith(raw, simplifiedchinese.GBK.NewDecoder())
}

func hasUnicodeBOM(raw []byte) bool {
	return bytes.HasPrefix(raw, bomUTF8) || bytes.HasPrefix(raw, bomUTF16LE) || bytes.HasPrefix(raw, bomUTF16BE)
}

func decodeWith(raw []byte, dec transform.Transformer) (string, error) {
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", apperrors.NewInvalidInputError("decoder", "no se pudo decodificar la entrada", err)
	}
	return string(out), nil
}

// Read lee r completo y lo decodifica.
func Read(r io.Reader, encodingName string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewInvalidInputError("reader", "error de lectura", err)
	}
	return Decode(raw, encodingName)
}

// ReadFile lee path y lo decodifica.
func ReadFile(path, encodingName string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewInvalidInputError(path, "no se pudo leer el fichero", err)
	}
	text, err := Decode(raw, encodingName)
	if err != nil {
		return "", apperrors.WithContext(err, "path", path)
	}
	logx.Debug("Entrada leída", logx.Fields{"stage": "input", "path": path, "bytes": len(raw)})
	return text, nil
}
