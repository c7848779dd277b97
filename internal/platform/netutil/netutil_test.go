package netutil

import "testing"

func TestIsIPLiteral(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"1.2.3.4":         true,
		"255.255.255.255": true,
		"256.1.1.1":       false,
		"1.2.3":           false,
		"1.2.3.4.5":       false,
		"2001:db8::1":     true,
		"::1":             true,
		"abc:def":         true,
		"ABC:DEF":         true,
		"abcdef":          false,
		"example.com":     false,
		"1.2.3.4:80":      false,
		"":                false,
	}
	for input, want := range tests {
		input, want := input, want
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			if got := IsIPLiteral(input); got != want {
				t.Fatalf("IsIPLiteral(%q) = %v, want %v", input, got, want)
			}
		})
	}
}

func TestIntToIPv4(t *testing.T) {
	t.Parallel()

	tests := map[uint32]string{
		0:          "0.0.0.0",
		16909060:   "1.2.3.4",
		3232235777: "192.168.1.1",
		4294967295: "255.255.255.255",
	}
	for input, want := range tests {
		if got := IntToIPv4(input); got != want {
			t.Fatalf("IntToIPv4(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestRegistrableDomainBuiltin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
		ok   bool
	}{
		{"www.example.co.uk", "example.co.uk", true},
		{"example.co.uk", "example.co.uk", true},
		{"co.uk", "co.uk", true},
		{"a.b.example.com", "example.com", true},
		{" *.API.Example.COM. ", "example.com", true},
		{"shop.example.com.br", "example.com.br", true},
		{"deep.mail.example.res.in", "example.res.in", true},
		{"example.com:8443", "example.com", true},
		{"localhost", "localhost", true},
		{"1.2.3.4", "", false},
		{"2001:db8::1", "", false},
		{"", "", false},
		{"   ", "", false},
		{":80", "", false},
		{"www.example.uk", "example.uk", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			got, ok := RegistrableDomain(tt.host, SuffixBuiltin)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("RegistrableDomain(%q) = (%q, %v), want (%q, %v)", tt.host, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRegistrableDomainPublicSuffix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"www.example.co.uk":     "example.co.uk",
		"a.b.example.com":       "example.com",
		"foo.bar.example.co.nz": "example.co.nz",
		"co.uk":                 "co.uk",
	}
	for host, want := range tests {
		got, ok := RegistrableDomain(host, SuffixPublicList)
		if !ok || got != want {
			t.Fatalf("RegistrableDomain(%q, publicsuffix) = (%q, %v), want %q", host, got, ok, want)
		}
	}
}

func TestParseSuffixSource(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]SuffixSource{
		"":             SuffixBuiltin,
		"builtin":      SuffixBuiltin,
		"PublicSuffix": SuffixPublicList,
	} {
		got, err := ParseSuffixSource(input)
		if err != nil || got != want {
			t.Fatalf("ParseSuffixSource(%q) = (%q, %v), want %q", input, got, err, want)
		}
	}
	if _, err := ParseSuffixSource("psl"); err == nil {
		t.Fatal("ParseSuffixSource(psl) should fail")
	}
}
