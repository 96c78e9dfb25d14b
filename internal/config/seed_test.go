package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `
jurisdictions:
  - id: UT
    name: Utah
    active: true
  - id: CA
    name: California
    active: false
templates:
  - id: ut-lease-v3
    jurisdiction: UT
    title: Residential Lease
    category: lease
    active: true
`)

	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}

	jurisdictions := seed.ModelJurisdictions()
	if len(jurisdictions) != 2 {
		t.Fatalf("got %d jurisdictions, want 2", len(jurisdictions))
	}
	if !jurisdictions[0].Active || jurisdictions[1].Active {
		t.Errorf("active flags not preserved: %+v", jurisdictions)
	}

	templates := seed.ModelTemplates()
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	if templates[0].JurisdictionID != "UT" || templates[0].Category != "lease" {
		t.Errorf("template fields not preserved: %+v", templates[0])
	}
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "template references unknown jurisdiction",
			content: `
jurisdictions:
  - id: UT
    name: Utah
    active: true
templates:
  - id: nv-lease
    jurisdiction: NV
    title: Residential Lease
    category: lease
    active: true
`,
		},
		{
			name: "duplicate jurisdiction",
			content: `
jurisdictions:
  - id: UT
    name: Utah
    active: true
  - id: UT
    name: Utah again
    active: true
`,
		},
		{
			name: "missing template id",
			content: `
jurisdictions:
  - id: UT
    name: Utah
    active: true
templates:
  - jurisdiction: UT
    title: Residential Lease
`,
		},
		{
			name:    "not yaml",
			content: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeedFile(t, tt.content)
			if _, err := LoadSeedFile(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file did not error")
	}
}
