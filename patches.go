package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"divergent/wxpatch/pkg/patch"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed payloads/main_nws.py
var nwsBackendBody string

// The built-in registry. Each entry reproduces one of the hand-edits we
// keep making against the backend and the Flutter client: literal needles,
// literal replacements, nothing smarter than that on purpose.
func builtinPatches() []patch.Patch {
	return []patch.Patch{
		{
			Name:   "backend-nws",
			Root:   "backend",
			Target: "main.py",
			Note:   "swap the Open-Meteo backend body for the NWS one",
			Body:   nwsBackendBody,
			Marker: `NWS_USER_AGENT = "DivergentWx/1.0`,
			BodyGuards: []string{
				`OM_BASE = "https://api.open-meteo.com/v1/forecast"`,
			},
		},
		{
			Name:   "calm-zeros",
			Root:   "backend",
			Target: "main.py",
			Note:   "stop live_wind from fabricating calm conditions on errors",
			Edits: []patch.Edit{
				{
					Find:    "CACHE: Dict[str, Tuple[float, List[Dict]]] = {}",
					Replace: "CACHE: Dict[str, Tuple[float, List[Dict]]] = {}\n\nclass NoDataError(Exception):\n  pass",
				},
				{
					Find:    "    if not g or not w:\n      return (0,0,0,0,0)",
					Replace: "    if not g or not w:\n      raise NoDataError(\"no wind arrays in response\")",
				},
				{
					Find:    "  except Exception as ex:\n    # Return safe zeros on any per-county error\n    return (0,0,0,0,0)",
					Replace: "  except Exception as ex:\n    # No fabricated calm: the caller skips this county instead.\n    raise NoDataError(f\"wind fetch failed: {ex}\") from ex",
				},
			},
		},
		{
			Name:   "client-base-url",
			Root:   "app",
			Target: "lib/services/wx_api.dart",
			Note:   "point the client at the redeployed backend",
			Edits: []patch.Edit{
				{
					Find:    "https://wx-live-backend.onrender.com",
					Replace: "https://divergent-wx-backend.onrender.com",
				},
			},
		},
		{
			Name:   "mojibake-arrows",
			Root:   "app",
			Target: "lib/widgets/summary_row.dart",
			Note:   "fix cp1252-mangled arrow and less-equal glyphs",
			Edits: []patch.Edit{
				{Find: "\u00e2\u2020\u2019", Replace: "\u2192"},
				{Find: "\u00e2\u2030\u00a4", Replace: "\u2264"},
			},
		},
		{
			Name:   "page-size-sync",
			Root:   "app",
			Target: "lib/config.dart",
			Note:   "keep the client page size in lockstep with the backend PAGE_SIZE",
			Edits: []patch.Edit{
				{
					Find:    "const int kPageSize = 20;",
					Replace: "const int kPageSize = 15;",
				},
			},
		},
		{
			Name:   "row-tolerant-parse",
			Root:   "app",
			Target: "lib/models/wx_row.dart",
			Note:   "replace the strict row parser with the tolerant one",
			Edits: []patch.Edit{
				{
					Find: "  factory WxRow.fromJson(Map<String, dynamic> j) => WxRow(\n" +
						"        county: j['county'] as String,\n" +
						"        state: j['state'] as String,\n" +
						"        expectedGust: (j['expectedGust'] as num).toDouble(),\n" +
						"        maxGust: (j['maxGust'] as num).toDouble(),\n" +
						"        probability: (j['probability'] as num).toDouble(),\n" +
						"        crews: j['crews'] as int,\n" +
						"      );",
					Replace: "  factory WxRow.fromJson(Map<String, dynamic> j) => WxRow(\n" +
						"        county: (j['county'] ?? '').toString(),\n" +
						"        state: (j['state'] ?? '').toString(),\n" +
						"        expectedGust: _num(j['expectedGust']),\n" +
						"        maxGust: _num(j['maxGust']),\n" +
						"        probability: _num(j['probability']),\n" +
						"        crews: _num(j['crews']).round(),\n" +
						"      );\n" +
						"\n" +
						"  static double _num(dynamic v) {\n" +
						"    if (v is num) return v.toDouble();\n" +
						"    return double.tryParse(v?.toString() ?? '') ?? 0.0;\n" +
						"  }",
				},
			},
		},
	}
}

type patchsetFile struct {
	Patches []patch.Patch `yaml:"patches"`
}

// loadPatchset reads extra patches from a YAML file. Same shape as the
// built-ins; literal needles only.
func loadPatchset(path string) ([]patch.Patch, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patchset: %w", err)
	}
	var ps patchsetFile
	err = yaml.Unmarshal(contents, &ps)
	if err != nil {
		return nil, fmt.Errorf("failed to parse patchset %s: %w", path, err)
	}
	for _, p := range ps.Patches {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid patchset %s: %w", path, err)
		}
	}
	return ps.Patches, nil
}

// allPatches merges the built-ins with any --patchset files. A patchset
// entry with a built-in's name overrides it.
func allPatches() ([]patch.Patch, error) {
	byName := map[string]int{}
	patches := builtinPatches()
	for i, p := range patches {
		byName[p.Name] = i
	}
	for _, path := range viper.GetStringSlice("patchsets") {
		extra, err := loadPatchset(path)
		if err != nil {
			return nil, err
		}
		for _, p := range extra {
			if i, ok := byName[p.Name]; ok {
				patches[i] = p
				continue
			}
			byName[p.Name] = len(patches)
			patches = append(patches, p)
		}
	}
	return patches, nil
}

// selectPatches filters by the names given on the command line; no names
// means every patch. "-" reads names from stdin like the other commands
// read filenames.
func selectPatches(args []string) ([]patch.Patch, error) {
	patches, err := allPatches()
	if err != nil {
		return nil, err
	}
	names, err := namesFromArgs(args)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return patches, nil
	}

	byName := map[string]patch.Patch{}
	for _, p := range patches {
		byName[p.Name] = p
	}
	selected := make([]patch.Patch, 0, len(names))
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown patch %q", name)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// targetPath resolves a patch's target against the configured roots.
func targetPath(p patch.Patch) string {
	root := viper.GetString("backend_root")
	if p.Root == "app" {
		root = viper.GetString("app_root")
	}
	return filepath.Join(root, filepath.FromSlash(p.Target))
}
