// Package archive validates flashable installer packages. A package is a
// zip whose entry paths follow the recovery-flashable layout; the paths
// probed here must stay byte for byte identical or existing packages stop
// being recognized.
package archive

import (
	"archive/zip"
	"io"

	"github.com/flashware/flashcheck/internal/manifest"
	"github.com/flashware/flashcheck/pkg/logger"
)

const (
	// UpdateBinaryPath marks an archive as a valid installer package.
	UpdateBinaryPath = "META-INF/com/google/android/update-binary"
	// FlashScriptPath marks an archive as flashable without a reboot into
	// a recovery flasher.
	FlashScriptPath = "META-INF/com/google/android/flash-script.sh"
	// ModulePropPath is the optional embedded module manifest.
	ModulePropPath = "system/frida.prop"
)

var log = logger.NewLogger("archive")

// CheckResult is the outcome of a single archive check. It is immutable;
// flashableInApp can only have been set after valid, so an invalid archive
// can never claim in-app flashability.
type CheckResult struct {
	valid          bool
	flashableInApp bool
	manifest       *manifest.Manifest
	manifestErr    error
}

// IsValid reports whether the archive contains the installer entry point.
func (r *CheckResult) IsValid() bool {
	return r.valid
}

// IsFlashableInApp reports whether the archive can be flashed from inside
// the app process. Only meaningful when IsValid.
func (r *CheckResult) IsFlashableInApp() bool {
	return r.flashableInApp
}

// Manifest returns the embedded module manifest, or nil when the archive
// carries none (absent entry, incomplete declaration, or unreadable entry).
func (r *CheckResult) Manifest() *manifest.Manifest {
	return r.manifest
}

// HasManifest reports whether a complete module manifest was parsed.
func (r *CheckResult) HasManifest() bool {
	return r.manifest != nil
}

// ManifestErr returns the error that caused the manifest to be downgraded
// to absent, when there was one. The overall check never fails on it.
func (r *CheckResult) ManifestErr() error {
	return r.manifestErr
}

// Check inspects an open archive. The caller owns zr and its closing; name
// is only used to identify the archive in log output. The manifest entry
// stream is opened, consumed and closed entirely within this call.
func Check(zr *zip.Reader, name string) *CheckResult {
	result := &CheckResult{}

	if findEntry(zr, UpdateBinaryPath) == nil {
		return result
	}
	result.valid = true

	if findEntry(zr, FlashScriptPath) != nil {
		result.flashableInApp = true
	}

	if entry := findEntry(zr, ModulePropPath); entry != nil {
		m, err := readManifest(entry)
		if err != nil {
			// A broken manifest entry never fails the archive check; the
			// archive is just treated as carrying no manifest.
			log.WithFields(logger.Fields{
				"archive": name,
				"entry":   ModulePropPath,
			}).WithError(err).Error("Failed to read module manifest from archive")
			result.manifestErr = err
		} else {
			result.manifest = m
		}
	}

	return result
}

// CheckFile opens the archive at path, checks it and closes it. The error
// is non-nil only when the file cannot be opened as a zip; a structurally
// unrecognized archive is a valid result, not an error.
func CheckFile(path string) (*CheckResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer CloseQuietly(zr)

	return Check(&zr.Reader, path), nil
}

// CloseQuietly closes c, logging close failures at debug level instead of
// propagating them. Used for read-only archive handles where a failed
// close loses nothing.
func CloseQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.WithError(err).Debug("Ignoring close failure")
	}
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readManifest(entry *zip.File) (*manifest.Manifest, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer CloseQuietly(rc)

	return manifest.Parse(rc)
}
