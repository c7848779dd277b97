package hosts

import "regexp"

// Patrones de versión en orden de preferencia. Solo se usa el primer grupo
// capturado que contenga dígitos.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/v?(\d+(?:\.\d+)*)`),             // nginx/1.18.0, Microsoft-IIS/10.0
	regexp.MustCompile(`(?i)version[:\s]+v?(\d+(?:\.\d+)*)`), // "Version: 2.3"
	regexp.MustCompile(`(?i)\bv(\d+\.\d+(?:\.\d+)?)\b`),      // v2.4.1
	regexp.MustCompile(`[-_]v?(\d+(?:\.\d+)+)`),              // OpenSSH_8.2p1, app-1.2
	regexp.MustCompile(`\s(\d+\.\d+(?:\.\d+)*)\b`),           // Apache httpd 2.4.41
}

var bareVersionRe = regexp.MustCompile(`\d+(?:\.\d+)+`)

// ExtractVersion deduce una versión a partir del nombre de un producto.
// Devuelve "" si no encuentra ninguna.
func ExtractVersion(product string) string {
	for _, re := range versionPatterns {
		m := re.FindStringSubmatch(product)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if hasDigit(group) {
				return group
			}
		}
	}
	return bareVersionRe.FindString(product)
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
