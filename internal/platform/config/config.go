// Package config carga la configuración del procesamiento desde un fichero
// YAML o JSON y la valida.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "scan-rows/internal/platform/errors"
	"scan-rows/internal/platform/logx"
	"scan-rows/internal/platform/netutil"
)

// SummaryUniquePostFilter cuenta valores distintos sobre las filas que pasan
// el filtro. Es el único modo soportado.
const SummaryUniquePostFilter = "unique_post_filter"

// Codificaciones de entrada aceptadas.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingGBK         = "gbk"
	EncodingWindows1252 = "windows-1252"
)

// Fields son los campos (columnas) seleccionados.
type Fields struct {
	IP             bool
	Domain         bool
	Ports          bool
	City           bool
	Org            bool
	Vulns          bool
	CVSS           bool
	ProductAndTech bool
	Versions       bool
	Timestamp      bool
}

type Config struct {
	Fields             Fields
	Include            []string
	Exclude            []string
	CountIPLikeDomains bool
	SuffixSource       string
	ExtractVersions    bool
	SummaryMode        string
	ChunkSize          int
	Workers            int
	LogLevel           string
	InputEncoding      string
	CSVBOM             bool
}

// Default devuelve la configuración por defecto: IP, dominio, puertos,
// organización, vulnerabilidades, productos/tecnologías y versiones.
func Default() *Config {
	return &Config{
		Fields: Fields{
			IP:             true,
			Domain:         true,
			Ports:          true,
			Org:            true,
			Vulns:          true,
			ProductAndTech: true,
			Versions:       true,
		},
		SuffixSource:    string(netutil.SuffixBuiltin),
		ExtractVersions: true,
		SummaryMode:     SummaryUniquePostFilter,
		ChunkSize:       100,
		Workers:         1,
		LogLevel:        "info",
		InputEncoding:   EncodingAuto,
	}
}

type fileFields struct {
	IP             *bool `json:"ip" yaml:"ip"`
	Domain         *bool `json:"domain" yaml:"domain"`
	Ports          *bool `json:"ports" yaml:"ports"`
	City           *bool `json:"city" yaml:"city"`
	Org            *bool `json:"org" yaml:"org"`
	Vulns          *bool `json:"vulns" yaml:"vulns"`
	CVSS           *bool `json:"cvss" yaml:"cvss"`
	ProductAndTech *bool `json:"product_and_tech" yaml:"product_and_tech"`
	Versions       *bool `json:"versions" yaml:"versions"`
	Timestamp      *bool `json:"timestamp" yaml:"timestamp"`
}

type fileConfig struct {
	Fields             *fileFields `json:"fields" yaml:"fields"`
	Include            *stringList `json:"include" yaml:"include"`
	Exclude            *stringList `json:"exclude" yaml:"exclude"`
	CountIPLikeDomains *bool       `json:"count_ip_like_domains" yaml:"count_ip_like_domains"`
	SuffixSource       *string     `json:"suffix_source" yaml:"suffix_source"`
	ExtractVersions    *bool       `json:"extract_versions" yaml:"extract_versions"`
	SummaryMode        *string     `json:"summary_mode" yaml:"summary_mode"`
	ChunkSize          *int        `json:"chunk_size" yaml:"chunk_size"`
	Workers            *int        `json:"workers" yaml:"workers"`
	LogLevel           *string     `json:"log_level" yaml:"log_level"`
	InputEncoding      *string     `json:"input_encoding" yaml:"input_encoding"`
	CSVBOM             *bool       `json:"csv_bom" yaml:"csv_bom"`
}

// stringList acepta una lista o un único string separado por ";".
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var aux []string
		if err := json.Unmarshal(trimmed, &aux); err != nil {
			return err
		}
		*s = cleanStringSlice(aux)
		return nil
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*s = cleanStringSlice(strings.Split(single, ";"))
		return nil
	default:
		return errors.New("los filtros deben ser un string o una lista")
	}
}

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		aux := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			aux = append(aux, node.Value)
		}
		*s = cleanStringSlice(aux)
		return nil
	case yaml.ScalarNode:
		*s = cleanStringSlice(strings.Split(value.Value, ";"))
		return nil
	case yaml.MappingNode, yaml.DocumentNode:
		return errors.New("los filtros deben ser un string o una lista")
	default:
		*s = nil
		return nil
	}
}

// Load lee path y superpone sus valores sobre Default. Las claves ausentes
// conservan el valor por defecto. El resultado se valida antes de devolverse.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewConfigurationError("config", path,
				"el archivo de configuración no existe", "Comprueba la ruta del fichero")
		}
		return nil, fmt.Errorf("no se pudo acceder al archivo de configuración %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewConfigurationError("config", path,
			"la ruta de configuración apunta a un directorio", "Indica un fichero .yaml, .yml o .json")
	}

	fc, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer la configuración desde %q: %w", path, err)
	}

	cfg := Default()
	fc.applyTo(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logx.Debug("Configuración cargada", logx.Fields{"path": path, "chunk_size": cfg.ChunkSize, "workers": cfg.Workers})
	return cfg, nil
}

func loadConfigFile(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg fileConfig
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, err
			}
		}
	}

	return &cfg, nil
}

func (fc *fileConfig) applyTo(cfg *Config) {
	if f := fc.Fields; f != nil {
		setBool(&cfg.Fields.IP, f.IP)
		setBool(&cfg.Fields.Domain, f.Domain)
		setBool(&cfg.Fields.Ports, f.Ports)
		setBool(&cfg.Fields.City, f.City)
		setBool(&cfg.Fields.Org, f.Org)
		setBool(&cfg.Fields.Vulns, f.Vulns)
		setBool(&cfg.Fields.CVSS, f.CVSS)
		setBool(&cfg.Fields.ProductAndTech, f.ProductAndTech)
		setBool(&cfg.Fields.Versions, f.Versions)
		setBool(&cfg.Fields.Timestamp, f.Timestamp)
	}
	if fc.Include != nil {
		cfg.Include = cleanStringSlice(*fc.Include)
	}
	if fc.Exclude != nil {
		cfg.Exclude = cleanStringSlice(*fc.Exclude)
	}
	setBool(&cfg.CountIPLikeDomains, fc.CountIPLikeDomains)
	setString(&cfg.SuffixSource, fc.SuffixSource)
	setBool(&cfg.ExtractVersions, fc.ExtractVersions)
	setString(&cfg.SummaryMode, fc.SummaryMode)
	if fc.ChunkSize != nil {
		cfg.ChunkSize = *fc.ChunkSize
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.InputEncoding, fc.InputEncoding)
	setBool(&cfg.CSVBOM, fc.CSVBOM)
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.ToLower(strings.TrimSpace(*src))
	}
}

// Validate comprueba los valores y devuelve un ConfigurationError con
// sugerencia para el primero inválido.
func (c *Config) Validate() error {
	if c.SummaryMode != SummaryUniquePostFilter {
		return apperrors.NewConfigurationError("summary_mode", c.SummaryMode,
			"modo de resumen no soportado",
			"Usa summary_mode: "+SummaryUniquePostFilter)
	}
	if _, err := netutil.ParseSuffixSource(c.SuffixSource); err != nil {
		return apperrors.NewConfigurationError("suffix_source", c.SuffixSource,
			"fuente de sufijos desconocida",
			"Usa suffix_source: builtin o suffix_source: publicsuffix")
	}
	if c.ChunkSize <= 0 {
		return apperrors.NewConfigurationError("chunk_size", fmt.Sprint(c.ChunkSize),
			"debe ser mayor que cero", "Usa chunk_size: 100")
	}
	if c.Workers <= 0 {
		return apperrors.NewConfigurationError("workers", fmt.Sprint(c.Workers),
			"debe ser mayor que cero", "Usa workers: 1 para procesar en el hilo llamante")
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigurationError("log_level", c.LogLevel,
			"nivel de log desconocido", "Usa error, warn, info, debug o trace")
	}
	switch c.InputEncoding {
	case EncodingAuto, EncodingUTF8, EncodingGBK, EncodingWindows1252:
	default:
		return apperrors.NewConfigurationError("input_encoding", c.InputEncoding,
			"codificación no soportada", "Usa auto, utf-8, gbk o windows-1252")
	}
	return nil
}

// ApplyLogging fija el nivel global de logx según LogLevel.
func (c *Config) ApplyLogging() error {
	level, err := logx.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logx.SetLevel(level)
	return nil
}

// IncludeFilter devuelve los términos de inclusión como cadena ";".
func (c *Config) IncludeFilter() string { return strings.Join(c.Include, ";") }

// ExcludeFilter devuelve los términos de exclusión como cadena ";".
func (c *Config) ExcludeFilter() string { return strings.Join(c.Exclude, ";") }

func cleanStringSlice(values []string) []string {
	list := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}
