// Package compat answers whether a parsed module manifest can run on the
// current device and installer. Every function is a pure function of the
// manifest and the supplied environment; nothing is cached.
package compat

import (
	"sort"

	goversion "github.com/hashicorp/go-version"

	"github.com/flashware/flashcheck/internal/manifest"
	"github.com/flashware/flashcheck/pkg/logger"
)

// FeatureFBEAware marks installers that keep module state in
// device-protected storage (/data/user_de) on SDK 24 and newer.
const FeatureFBEAware = "fbe_aware"

// Environment describes the device and installer a module is evaluated
// against. Callers build it from detected runtime info plus configuration;
// tests can construct arbitrary ones.
type Environment struct {
	APILevel          int
	Arch              string
	InstallerVersion  string
	InstallerFeatures map[string]struct{}
}

// DefaultInstallerFeatures returns the capability set this installer
// provides to modules. Extend here when the installer grows a capability;
// module manifests opt in via requires: keys.
func DefaultInstallerFeatures() map[string]struct{} {
	return map[string]struct{}{
		FeatureFBEAware: {},
	}
}

// ArchCompatible reports whether the module targets exactly the device
// architecture. No aliasing: arm64 modules do not match arm devices even
// though the hardware could run them.
func ArchCompatible(m *manifest.Manifest, env Environment) bool {
	return m.Arch == env.Arch
}

// SDKCompatible reports whether the device API level falls inside the
// module's declared range, inclusive on both ends.
func SDKCompatible(m *manifest.Manifest, env Environment) bool {
	return m.MinSDK <= env.APILevel && env.APILevel <= m.MaxSDK
}

// Compatible combines the architecture and SDK checks. Missing installer
// features are deliberately excluded; callers must consult
// MissingInstallerFeatures separately before flashing.
func Compatible(m *manifest.Manifest, env Environment) bool {
	return SDKCompatible(m, env) && ArchCompatible(m, env)
}

// MissingInstallerFeatures returns the capabilities the module requires but
// the installer does not provide, sorted so logs and UI stay stable.
func MissingInstallerFeatures(m *manifest.Manifest, env Environment) []string {
	missing := make([]string, 0, len(m.Requires))
	for name := range m.Requires {
		if _, ok := env.InstallerFeatures[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// MeetsMinimumVersion reports whether the module's declared version is at
// least minimum. Both sides are compared semantically when they parse as
// versions; otherwise the leading integer parts are compared, which keeps
// legacy modules with versions like "89-beta3" working. An empty minimum
// disables the gate.
func MeetsMinimumVersion(m *manifest.Manifest, minimum string) bool {
	if minimum == "" {
		return true
	}

	floor, errFloor := goversion.NewVersion(minimum)
	declared, errDeclared := goversion.NewVersion(m.Version)
	if errFloor == nil && errDeclared == nil {
		return declared.GreaterThanOrEqual(floor)
	}

	return m.VersionCode >= manifest.LeadingInt(minimum)
}

// ReportMissingFeatures logs the installer version and the sorted missing
// capability list so support can tell an outdated installer from a broken
// module.
func ReportMissingFeatures(log *logger.Logger, installerVersion string, missing []string) {
	log.WithFields(logger.Fields{
		"installer_version": installerVersion,
		"missing_features":  missing,
	}).Error("Module requires installer features that are not available")
}
