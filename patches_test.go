package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPatchesAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range builtinPatches() {
		require.NoError(t, p.Validate(), "builtin %s", p.Name)
		require.False(t, seen[p.Name], "duplicate builtin name %s", p.Name)
		seen[p.Name] = true
	}
}

func TestBackendBodyIsEmbedded(t *testing.T) {
	require.Contains(t, nwsBackendBody, "api.weather.gov")
	require.NotContains(t, nwsBackendBody, "open-meteo.com",
		"the NWS body must not mention the source it replaces")
}

func TestLoadPatchset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	err := os.WriteFile(path, []byte(`
patches:
  - name: banner-fix
    root: app
    target: lib/widgets/banner.dart
    note: swap the outage banner copy
    edits:
      - find: "Storm mode"
        replace: "Outage mode"
`), 0644)
	require.NoError(t, err)

	patches, err := loadPatchset(path)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Equal(t, "banner-fix", patches[0].Name)
	require.Equal(t, "app", patches[0].Root)
	require.Equal(t, "Storm mode", patches[0].Edits[0].Find)
	require.Equal(t, "Outage mode", patches[0].Edits[0].Replace)
}

func TestLoadPatchsetRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(path, []byte(`
patches:
  - name: no-target
    root: app
    edits:
      - find: "x"
        replace: "y"
`), 0644)
	require.NoError(t, err)
	_, err = loadPatchset(path)
	require.Error(t, err)

	garbled := filepath.Join(dir, "garbled.yaml")
	err = os.WriteFile(garbled, []byte("patches: ["), 0644)
	require.NoError(t, err)
	_, err = loadPatchset(garbled)
	require.Error(t, err)
}

func TestSelectPatches(t *testing.T) {
	viper.Set("patchsets", nil)
	defer viper.Set("patchsets", nil)

	all, err := selectPatches(nil)
	require.NoError(t, err)
	require.Len(t, all, len(builtinPatches()))

	some, err := selectPatches([]string{"page-size-sync", "calm-zeros"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	require.Equal(t, "page-size-sync", some[0].Name)
	require.Equal(t, "calm-zeros", some[1].Name)

	_, err = selectPatches([]string{"no-such-patch"})
	require.Error(t, err)
}

func TestPatchsetOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	err := os.WriteFile(path, []byte(`
patches:
  - name: page-size-sync
    root: app
    target: lib/config.dart
    edits:
      - find: "const int kPageSize = 20;"
        replace: "const int kPageSize = 30;"
`), 0644)
	require.NoError(t, err)

	viper.Set("patchsets", []string{path})
	defer viper.Set("patchsets", nil)

	patches, err := allPatches()
	require.NoError(t, err)
	require.Len(t, patches, len(builtinPatches()))
	for _, p := range patches {
		if p.Name == "page-size-sync" {
			require.Equal(t, "const int kPageSize = 30;", p.Edits[0].Replace)
		}
	}
}

func TestTargetPath(t *testing.T) {
	viper.Set("backend_root", "/tmp/backend")
	viper.Set("app_root", "/tmp/app")
	defer func() {
		viper.Set("backend_root", "")
		viper.Set("app_root", "")
	}()

	for _, p := range builtinPatches() {
		got := targetPath(p)
		if p.Root == "backend" {
			require.Equal(t, filepath.Join("/tmp/backend", p.Target), got)
		} else {
			require.Equal(t, filepath.Join("/tmp/app", filepath.FromSlash(p.Target)), got)
		}
	}
}
