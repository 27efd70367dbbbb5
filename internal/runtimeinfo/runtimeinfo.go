// Package runtimeinfo supplies the device facts the compatibility evaluator
// needs: API level and CPU architecture. Detection is best effort; explicit
// configuration always wins over anything probed from the host.
package runtimeinfo

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/flashware/flashcheck/internal/manifest"
	"github.com/flashware/flashcheck/pkg/logger"
)

var log = logger.NewLogger("runtimeinfo")

// DeviceInfo describes the device modules are evaluated against.
type DeviceInfo struct {
	APILevel int
	Arch     string
}

// archNames maps kernel machine names to the architecture identifiers
// module manifests declare.
var archNames = map[string]string{
	"aarch64": "arm64",
	"arm64":   "arm64",
	"armv7l":  "arm",
	"armv8l":  "arm",
	"i386":    "x86",
	"i686":    "x86",
	"x86_64":  "x86_64",
}

// Detect probes the host for architecture and, on Android hosts, the API
// level. Fields that cannot be determined are left zero so callers can
// layer configured overrides on top.
func Detect() DeviceInfo {
	var info DeviceInfo

	hi, err := host.Info()
	if err != nil {
		log.WithError(err).Warn("Could not read host information")
		return info
	}

	info.Arch = NormalizeArch(hi.KernelArch)

	// Only an Android host exposes an OS release the API level can be
	// derived from; on anything else the level has to come from
	// configuration.
	if strings.EqualFold(hi.Platform, "android") {
		info.APILevel = APILevelForRelease(hi.PlatformVersion)
	}

	return info
}

// androidAPILevels maps Android major releases to their API level.
var androidAPILevels = map[int]int{
	5: 21, 6: 23, 7: 24, 8: 26, 9: 28, 10: 29, 11: 30,
	12: 31, 13: 33, 14: 34, 15: 35, 16: 36,
}

// APILevelForRelease derives the API level from an Android release string
// such as "13" or "8.1.0". Unknown releases yield 0.
func APILevelForRelease(release string) int {
	major := manifest.LeadingInt(release)
	if level, ok := androidAPILevels[major]; ok {
		// 5.1, 7.1 and 8.1 bumped the API level by one.
		if strings.HasPrefix(release, "5.1") || strings.HasPrefix(release, "7.1") || strings.HasPrefix(release, "8.1") {
			return level + 1
		}
		return level
	}
	return 0
}

// NormalizeArch translates a kernel machine name into the identifier used
// by module manifests. Unknown names pass through unchanged; the
// compatibility check is exact-match either way.
func NormalizeArch(kernelArch string) string {
	if normalized, ok := archNames[strings.ToLower(kernelArch)]; ok {
		return normalized
	}
	return kernelArch
}
