package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentstation/gaze/internal/catalogs"
	"github.com/agentstation/gaze/internal/cmd/application"
	pkgcatalog "github.com/agentstation/gaze/pkg/catalog"
)

const doc = `
modules:
  - id: "1"
    display_name: Chemistry 101
    description: Introductory chemistry
    canonical_content_url: http://cdn/modules/chem-101/index.html
    categories:
      - name: Science
  - id: "2"
    display_name: World History
    canonical_content_url: http://cdn/modules/hist-200/index.html
`

func writeCatalog(t *testing.T) catalogs.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	return catalogs.Config{Kind: catalogs.Files, Path: path}
}

func TestCatalogTable(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, writeCatalog(t), "/modules/")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, want := range []string{"Chemistry 101", "chem-101", "World History", "hist-200"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCatalogSearchJSON(t *testing.T) {
	mock := &application.Mock{OutputFormatFunc: func() string { return "json" }}
	cmd := NewCommand(mock, writeCatalog(t), "/modules/")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"INTRODUCTORY"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}

	var entries []pkgcatalog.Entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(entries) != 1 || entries[0].DisplayName != "Chemistry 101" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestCatalogNoMatches(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, writeCatalog(t), "/modules/")

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"physics"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	if out.Len() != 0 || !strings.Contains(errOut.String(), "No modules found") {
		t.Errorf("unexpected output %q / %q", out.String(), errOut.String())
	}
}

func TestCatalogBadBackend(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, catalogs.Config{Kind: catalogs.SQLite}, "/modules/")
	cmd.SetArgs(nil)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected a configuration error")
	}
}
