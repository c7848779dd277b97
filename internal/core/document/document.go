// Package document modela un valor JSON genérico conservando el orden de las
// claves de cada objeto y el literal original de los números.
//
// encoding/json decodifica objetos en map[string]any y pierde el orden de
// aparición; aquí ese orden es parte del contrato (las tecnologías web y los
// mapas de vulnerabilidades se listan en el orden en que aparecen).
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind identifica el tipo JSON de un Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value es un valor JSON inmutable. El valor cero es null.
type Value struct {
	kind  Kind
	b     bool
	text  string
	items []Value
	obj   *object
}

type object struct {
	keys []string
	vals map[string]Value
}

// set respeta la semántica de JSON.parse: ante claves duplicadas gana el
// último valor pero se conserva la posición de la primera aparición.
func (o *object) set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func newObject() *object {
	return &object{vals: make(map[string]Value)}
}

// NewString construye un string JSON.
func NewString(s string) Value { return Value{kind: String, text: s} }

// NewBool construye un booleano JSON.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewNumber construye un número a partir de su literal. El literal debe ser
// un número JSON válido.
func NewNumber(literal string) Value { return Value{kind: Number, text: literal} }

// NewArray construye un array con los elementos indicados.
func NewArray(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: Array, items: cp}
}

// Field es un par clave/valor usado por NewObject.
type Field struct {
	Key   string
	Value Value
}

// NewObject construye un objeto respetando el orden de los campos.
func NewObject(fields ...Field) Value {
	obj := newObject()
	for _, f := range fields {
		obj.set(f.Key, f.Value)
	}
	return Value{kind: Object, obj: obj}
}

// Decode parsea estrictamente un documento JSON completo. Los errores son los
// de encoding/json (normalmente *json.SyntaxError con su Offset).
func Decode(data []byte) (Value, error) {
	// Unmarshal valida el documento entero (incluido contenido sobrante tras
	// el valor raíz) antes de tocar el destino.
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Array, items: items}, nil
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("document: clave no textual %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Object, obj: obj}, nil
		}
		return Value{}, fmt.Errorf("document: delimitador inesperado %q", rune(t))
	case bool:
		return NewBool(t), nil
	case json.Number:
		return NewNumber(string(t)), nil
	case string:
		return NewString(t), nil
	case nil:
		return Value{}, nil
	}
	return Value{}, fmt.Errorf("document: token inesperado %T", tok)
}

// Kind devuelve el tipo del valor.
func (v Value) Kind() Kind { return v.kind }

// IsNull indica si el valor es null (o ausente).
func (v Value) IsNull() bool { return v.kind == Null }

// Len devuelve el número de elementos de un array o de claves de un objeto.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.obj.keys)
	}
	return 0
}

// Items devuelve los elementos de un array (nil para otros tipos).
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.items
}

// Index devuelve el elemento i de un array, o null si no existe.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.items) {
		return Value{}
	}
	return v.items[i]
}

// Keys devuelve las claves de un objeto en orden de aparición.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, len(v.obj.keys))
	copy(keys, v.obj.keys)
	return keys
}

// Get devuelve el valor asociado a key cuando v es un objeto.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	child, ok := v.obj.vals[key]
	return child, ok
}

// Path recorre objetos anidados. Cualquier tramo ausente o que no sea un
// objeto produce null.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}
		}
		cur = next
	}
	return cur
}

// Str devuelve el contenido de un string JSON.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.text, true
}

// Literal devuelve el literal original de un número JSON.
func (v Value) Literal() (string, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.text, true
}

// Float devuelve el valor numérico de un número JSON.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		// Literales fuera de rango: ParseFloat ya devuelve ±Inf.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// Truthy replica la noción de verdad de JavaScript sobre valores JSON.
func (v Value) Truthy() bool {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		f, ok := v.Float()
		return ok && f != 0 && !math.IsNaN(f)
	case String:
		return v.text != ""
	case Array, Object:
		return true
	}
	return false
}

// Text convierte un escalar (string, número o booleano) a texto. Los números
// se formatean de forma canónica (80.0 -> "80"). Para null, arrays y objetos
// devuelve false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case String:
		return v.text, true
	case Number:
		return FormatNumber(v.text), true
	case Bool:
		return strconv.FormatBool(v.b), true
	}
	return "", false
}

// FormatNumber normaliza un literal numérico JSON a su forma textual más
// corta, igual que String(n) en un navegador para los rangos habituales.
func FormatNumber(literal string) string {
	if !strings.ContainsAny(literal, ".eE") {
		if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		return trimExponent(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// trimExponent quita los ceros a la izquierda del exponente ("1e-07" pasa a
// "1e-7"), que FormatFloat siempre rellena hasta dos dígitos.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 > len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// Interface convierte el valor a tipos Go nativos: map[string]any, []any,
// json.Number, string, bool o nil. Los números salen normalizados con
// FormatNumber, así que 80.0 y 80 dan el mismo json.Number.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return json.Number(FormatNumber(v.text))
	case String:
		return v.text
	case Array:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj.keys))
		for _, k := range v.obj.keys {
			out[k] = v.obj.vals[k].Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON serializa el valor en forma compacta respetando el orden de
// las claves.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(FormatNumber(v.text))
	case String:
		return writeString(buf, v.text)
	case Array:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.obj.vals[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("document: tipo desconocido %v", v.kind)
	}
	return nil
}

// writeString escribe s como string JSON sin escapar <, > ni &.
func writeString(w io.Writer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	_, err := w.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return err
}

// Indent devuelve la representación con sangría de dos espacios, la misma
// forma que JSON.stringify(v, null, 2).
func Indent(v Value) (string, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}
