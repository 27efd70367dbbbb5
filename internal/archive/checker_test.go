package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashware/flashcheck/internal/manifest"
)

const completeProp = `version=89
arch=arm64
minsdk=21
maxsdk=29
requires:fbe_aware=1
`

// buildZip assembles an in-memory zip with the given entries.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func openZip(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return zr
}

// corruptEntry overwrites the compressed payload of the named entry so that
// reading it fails mid-stream.
func corruptEntry(t *testing.T, data []byte, name string) []byte {
	t.Helper()

	zr := openZip(t, data)
	f := findEntry(zr, name)
	require.NotNil(t, f)

	offset, err := f.DataOffset()
	require.NoError(t, err)

	corrupted := append([]byte(nil), data...)
	for i := int64(0); i < int64(f.CompressedSize64); i++ {
		corrupted[offset+i] ^= 0xFF
	}
	return corrupted
}

func TestCheck_NoUpdateBinary(t *testing.T) {
	// Other entries do not matter when the entry point is missing.
	data := buildZip(t, map[string]string{
		FlashScriptPath: "#!/sbin/sh\n",
		ModulePropPath:  completeProp,
		"system/bin/app_process": "payload",
	})

	result := Check(openZip(t, data), "test.zip")

	assert.False(t, result.IsValid())
	assert.False(t, result.IsFlashableInApp())
	assert.False(t, result.HasManifest())
	assert.Nil(t, result.Manifest())
}

func TestCheck_ValidNotFlashableInApp(t *testing.T) {
	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
	})

	result := Check(openZip(t, data), "test.zip")

	assert.True(t, result.IsValid())
	assert.False(t, result.IsFlashableInApp())
	assert.False(t, result.HasManifest())
}

func TestCheck_FlashableWithManifest(t *testing.T) {
	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
		FlashScriptPath:  "#!/sbin/sh\n",
		ModulePropPath:   completeProp,
	})

	result := Check(openZip(t, data), "test.zip")

	assert.True(t, result.IsValid())
	assert.True(t, result.IsFlashableInApp())
	require.True(t, result.HasManifest())
	assert.NoError(t, result.ManifestErr())

	m := result.Manifest()
	assert.Equal(t, "89", m.Version)
	assert.Equal(t, 89, m.VersionCode)
	assert.Equal(t, "arm64", m.Arch)
	assert.True(t, m.RequiresFeature("fbe_aware"))
}

func TestCheck_IncompleteManifestTreatedAsAbsent(t *testing.T) {
	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
		ModulePropPath:   "version=89\n",
	})

	result := Check(openZip(t, data), "test.zip")

	assert.True(t, result.IsValid())
	assert.False(t, result.HasManifest())
	assert.NoError(t, result.ManifestErr())
}

func TestCheck_UnreadableManifestDowngraded(t *testing.T) {
	hook := logtest.NewLocal(log.Logger)
	defer hook.Reset()
	log.Logger.SetOutput(io.Discard)

	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
		FlashScriptPath:  "#!/sbin/sh\n",
		ModulePropPath:   completeProp,
	})
	data = corruptEntry(t, data, ModulePropPath)

	result := Check(openZip(t, data), "broken.zip")

	// The broken manifest entry never fails the archive verdict.
	assert.True(t, result.IsValid())
	assert.True(t, result.IsFlashableInApp())
	assert.False(t, result.HasManifest())
	assert.Error(t, result.ManifestErr())

	entries := hook.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "broken.zip", entries[0].Data["archive"])
}

func TestCheck_MalformedManifestKeptInManifestErr(t *testing.T) {
	hook := logtest.NewLocal(log.Logger)
	defer hook.Reset()
	log.Logger.SetOutput(io.Discard)

	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
		ModulePropPath:   "version=89\narch=arm64\nminsdk=abc\nmaxsdk=29\n",
	})

	result := Check(openZip(t, data), "bad-prop.zip")

	assert.True(t, result.IsValid())
	assert.False(t, result.HasManifest())

	var parseErr *manifest.ParseError
	require.True(t, errors.As(result.ManifestErr(), &parseErr))
	assert.Equal(t, "minsdk", parseErr.Key)
}

func TestCheckFile(t *testing.T) {
	data := buildZip(t, map[string]string{
		UpdateBinaryPath: "#!/sbin/sh\n",
		FlashScriptPath:  "#!/sbin/sh\n",
		ModulePropPath:   completeProp,
	})

	path := filepath.Join(t.TempDir(), "module.zip")
	require.NoError(t, os.WriteFile(path, data, 0644))

	result, err := CheckFile(path)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
	assert.True(t, result.IsFlashableInApp())
	assert.True(t, result.HasManifest())
}

func TestCheckFile_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	result, err := CheckFile(path)
	assert.Error(t, err)
	assert.Nil(t, result)
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("already closed") }

func TestCloseQuietly(t *testing.T) {
	assert.NotPanics(t, func() {
		CloseQuietly(failingCloser{})
	})
}
