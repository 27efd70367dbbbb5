// Package report assembles the outcome of an archive check into a single
// record that can be rendered as JSON, YAML or plain text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/flashware/flashcheck/internal/archive"
	"github.com/flashware/flashcheck/internal/compat"
)

// ManifestInfo echoes the parsed module manifest in the report.
type ManifestInfo struct {
	Version     string   `json:"version" yaml:"version"`
	VersionCode int      `json:"version_code" yaml:"version_code"`
	Arch        string   `json:"arch" yaml:"arch"`
	MinSDK      int      `json:"min_sdk" yaml:"min_sdk"`
	MaxSDK      int      `json:"max_sdk" yaml:"max_sdk"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// CompatInfo carries the compatibility verdicts for the checked archive.
type CompatInfo struct {
	ArchCompatible      bool     `json:"arch_compatible" yaml:"arch_compatible"`
	SDKCompatible       bool     `json:"sdk_compatible" yaml:"sdk_compatible"`
	Compatible          bool     `json:"compatible" yaml:"compatible"`
	MissingFeatures     []string `json:"missing_features,omitempty" yaml:"missing_features,omitempty"`
	MeetsMinimumVersion bool     `json:"meets_minimum_version" yaml:"meets_minimum_version"`
}

// Report is the full outcome of checking one archive.
type Report struct {
	ID             string        `json:"id" yaml:"id"`
	Archive        string        `json:"archive" yaml:"archive"`
	CheckedAt      time.Time     `json:"checked_at" yaml:"checked_at"`
	ValidArchive   bool          `json:"valid_archive" yaml:"valid_archive"`
	FlashableInApp bool          `json:"flashable_in_app" yaml:"flashable_in_app"`
	HasManifest    bool          `json:"has_manifest" yaml:"has_manifest"`
	Manifest       *ManifestInfo `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Compat         *CompatInfo   `json:"compat,omitempty" yaml:"compat,omitempty"`
}

// Build assembles a report from a check result and, when the archive carries
// a manifest, the compatibility answers for env. minModuleVersion gates the
// meets_minimum_version verdict; empty disables it.
func Build(path string, result *archive.CheckResult, env compat.Environment, minModuleVersion string) *Report {
	r := &Report{
		ID:             uuid.New().String(),
		Archive:        path,
		CheckedAt:      time.Now().UTC(),
		ValidArchive:   result.IsValid(),
		FlashableInApp: result.IsFlashableInApp(),
		HasManifest:    result.HasManifest(),
	}

	m := result.Manifest()
	if m == nil {
		return r
	}

	requires := make([]string, 0, len(m.Requires))
	for name := range m.Requires {
		requires = append(requires, name)
	}
	sort.Strings(requires)

	r.Manifest = &ManifestInfo{
		Version:     m.Version,
		VersionCode: m.VersionCode,
		Arch:        m.Arch,
		MinSDK:      m.MinSDK,
		MaxSDK:      m.MaxSDK,
		Requires:    requires,
	}
	r.Compat = &CompatInfo{
		ArchCompatible:      compat.ArchCompatible(m, env),
		SDKCompatible:       compat.SDKCompatible(m, env),
		Compatible:          compat.Compatible(m, env),
		MissingFeatures:     compat.MissingInstallerFeatures(m, env),
		MeetsMinimumVersion: compat.MeetsMinimumVersion(m, minModuleVersion),
	}

	return r
}

// Encode writes the report to w in the requested format: json, yaml or text.
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "text", "":
		return r.encodeText(w)
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func (r *Report) encodeText(w io.Writer) error {
	fmt.Fprintf(w, "%s\n", r.Archive)
	fmt.Fprintf(w, "  valid archive:     %v\n", r.ValidArchive)
	fmt.Fprintf(w, "  flashable in-app:  %v\n", r.FlashableInApp)
	if r.Manifest == nil {
		fmt.Fprintf(w, "  module manifest:   absent\n")
		return nil
	}
	fmt.Fprintf(w, "  module version:    %s (%d)\n", r.Manifest.Version, r.Manifest.VersionCode)
	fmt.Fprintf(w, "  module arch:       %s\n", r.Manifest.Arch)
	fmt.Fprintf(w, "  module sdk range:  %d-%d\n", r.Manifest.MinSDK, r.Manifest.MaxSDK)
	if len(r.Manifest.Requires) > 0 {
		fmt.Fprintf(w, "  module requires:   %v\n", r.Manifest.Requires)
	}
	fmt.Fprintf(w, "  compatible:        %v (arch %v, sdk %v)\n",
		r.Compat.Compatible, r.Compat.ArchCompatible, r.Compat.SDKCompatible)
	if len(r.Compat.MissingFeatures) > 0 {
		fmt.Fprintf(w, "  missing features:  %v\n", r.Compat.MissingFeatures)
	}
	if !r.Compat.MeetsMinimumVersion {
		fmt.Fprintf(w, "  module too old:    yes\n")
	}
	return nil
}
