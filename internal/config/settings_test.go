// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapgate/zapgate/internal/transcode"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	s := LoadSettings(filepath.Join(t.TempDir(), "settings.conf"))
	backend, codec := s.Defaults()
	assert.Equal(t, transcode.BackendSoftware, backend)
	assert.Equal(t, transcode.CodecH264, codec)
}

func TestLoadSettingsParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")
	content := "# transcoding defaults\nTRANSCODE_BACKEND = nvenc\nTRANSCODE_CODEC=hevc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := LoadSettings(path)
	backend, codec := s.Defaults()
	assert.Equal(t, transcode.BackendNVENC, backend)
	assert.Equal(t, transcode.CodecHEVC, codec)
}

func TestLoadSettingsUnknownValuesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")
	content := "TRANSCODE_BACKEND=quantum\nTRANSCODE_CODEC=mpeg9\ngarbage line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := LoadSettings(path)
	backend, codec := s.Defaults()
	assert.Equal(t, transcode.BackendSoftware, backend)
	assert.Equal(t, transcode.CodecH264, codec)
}

func TestSettingsUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")
	s := LoadSettings(path)

	require.NoError(t, s.Update("vaapi", "av1"))
	backend, codec := s.Defaults()
	assert.Equal(t, transcode.BackendVAAPI, backend)
	assert.Equal(t, transcode.CodecAV1, codec)

	// A fresh load sees the persisted values.
	reloaded := LoadSettings(path)
	backend, codec = reloaded.Defaults()
	assert.Equal(t, transcode.BackendVAAPI, backend)
	assert.Equal(t, transcode.CodecAV1, codec)
}

func TestSettingsUpdateIgnoresInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")
	s := LoadSettings(path)
	require.NoError(t, s.Update("nvenc", "hevc"))

	// Invalid values leave the stored pair untouched.
	require.NoError(t, s.Update("bogus", ""))
	backend, codec := s.Defaults()
	assert.Equal(t, transcode.BackendNVENC, backend)
	assert.Equal(t, transcode.CodecHEVC, codec)
}
