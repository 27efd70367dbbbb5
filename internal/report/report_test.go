package report

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flashware/flashcheck/internal/archive"
	"github.com/flashware/flashcheck/internal/compat"
)

func checkedArchive(t *testing.T, entries map[string]string) *archive.CheckResult {
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

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return archive.Check(zr, "module.zip")
}

func testEnv() compat.Environment {
	return compat.Environment{
		APILevel:          25,
		Arch:              "arm64",
		InstallerVersion:  "3.1.0",
		InstallerFeatures: compat.DefaultInstallerFeatures(),
	}
}

func TestBuild_InvalidArchive(t *testing.T) {
	result := checkedArchive(t, map[string]string{"random.txt": "nope"})

	r := Build("module.zip", result, testEnv(), "")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "module.zip", r.Archive)
	assert.False(t, r.ValidArchive)
	assert.False(t, r.FlashableInApp)
	assert.False(t, r.HasManifest)
	assert.Nil(t, r.Manifest)
	assert.Nil(t, r.Compat)
}

func TestBuild_FullReport(t *testing.T) {
	result := checkedArchive(t, map[string]string{
		archive.UpdateBinaryPath: "#!/sbin/sh\n",
		archive.FlashScriptPath:  "#!/sbin/sh\n",
		archive.ModulePropPath:   "version=89\narch=arm64\nminsdk=21\nmaxsdk=29\nrequires:root_v2=1\n",
	})

	r := Build("module.zip", result, testEnv(), "85")

	assert.True(t, r.ValidArchive)
	assert.True(t, r.FlashableInApp)
	require.NotNil(t, r.Manifest)
	assert.Equal(t, "89", r.Manifest.Version)
	assert.Equal(t, []string{"root_v2"}, r.Manifest.Requires)

	require.NotNil(t, r.Compat)
	assert.True(t, r.Compat.ArchCompatible)
	assert.True(t, r.Compat.SDKCompatible)
	assert.True(t, r.Compat.Compatible)
	assert.Equal(t, []string{"root_v2"}, r.Compat.MissingFeatures)
	assert.True(t, r.Compat.MeetsMinimumVersion)
}

func TestEncode_JSON(t *testing.T) {
	result := checkedArchive(t, map[string]string{
		archive.UpdateBinaryPath: "#!/sbin/sh\n",
	})
	r := Build("module.zip", result, testEnv(), "")

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf, "json"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["valid_archive"])
	assert.Equal(t, false, decoded["flashable_in_app"])
	assert.Equal(t, r.ID, decoded["id"])
}

func TestEncode_YAML(t *testing.T) {
	result := checkedArchive(t, map[string]string{
		archive.UpdateBinaryPath: "#!/sbin/sh\n",
		archive.FlashScriptPath:  "#!/sbin/sh\n",
	})
	r := Build("module.zip", result, testEnv(), "")

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf, "yaml"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["valid_archive"])
	assert.Equal(t, true, decoded["flashable_in_app"])
}

func TestEncode_Text(t *testing.T) {
	result := checkedArchive(t, map[string]string{
		archive.UpdateBinaryPath: "#!/sbin/sh\n",
	})
	r := Build("module.zip", result, testEnv(), "")

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf, "text"))

	out := buf.String()
	assert.Contains(t, out, "module.zip")
	assert.Contains(t, out, "valid archive:     true")
	assert.Contains(t, out, "module manifest:   absent")
}

func TestEncode_UnknownFormat(t *testing.T) {
	result := checkedArchive(t, map[string]string{})
	r := Build("module.zip", result, testEnv(), "")

	var buf bytes.Buffer
	assert.Error(t, r.Encode(&buf, "xml"))
}
