// Package netutil agrupa utilidades de red puras: detección de literales IP,
// conversión de IPs numéricas y reducción de hostnames a su dominio
// registrable.
package netutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dottedQuadRe = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)
	looseIPv6Re  = regexp.MustCompile(`(?i)^[0-9a-f:]+$`)
)

// IsIPLiteral indica si s parece una IP: un IPv4 con cuatro octetos en 0-255
// o una cadena de dígitos hexadecimales y ":" que contenga al menos un ":".
// La comprobación IPv6 es deliberadamente laxa ("abc:def" cuenta como IP).
func IsIPLiteral(s string) bool {
	if dottedQuadRe.MatchString(s) {
		for _, octet := range strings.Split(s, ".") {
			n, err := strconv.Atoi(octet)
			if err != nil || n > 255 {
				return false
			}
		}
		return true
	}
	return strings.Contains(s, ":") && looseIPv6Re.MatchString(s)
}

// IntToIPv4 representa un entero de 32 bits como IPv4 en notación decimal con
// puntos (16909060 -> "1.2.3.4").
func IntToIPv4(n uint32) string {
	var b strings.Builder
	b.Grow(15)
	for shift := 24; shift >= 0; shift -= 8 {
		if shift != 24 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(int(n >> uint(shift) & 0xff)))
	}
	return b.String()
}
