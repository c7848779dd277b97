package engine

import (
	"scan-rows/internal/core/hosts"
	"scan-rows/internal/core/tabulate"
	"scan-rows/internal/platform/config"
	"scan-rows/internal/platform/netutil"
)

// FromConfig traduce una configuración ya validada a Options.
func FromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	f := cfg.Fields
	source, err := netutil.ParseSuffixSource(cfg.SuffixSource)
	if err != nil {
		source = netutil.SuffixBuiltin
	}
	return Options{
		Selection: tabulate.Selection{
			IP:             f.IP,
			Domain:         f.Domain,
			Ports:          f.Ports,
			City:           f.City,
			Org:            f.Org,
			Vulns:          f.Vulns,
			CVSS:           f.CVSS,
			ProductAndTech: f.ProductAndTech,
			Versions:       f.Versions,
			Timestamp:      f.Timestamp,
		},
		Include: cfg.IncludeFilter(),
		Exclude: cfg.ExcludeFilter(),
		Hosts: hosts.Options{
			CountIPLikeDomains: cfg.CountIPLikeDomains,
			SuffixSource:       source,
			ExtractVersions:    cfg.ExtractVersions,
		},
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.Workers,
	}
}
