package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"
)

// versionLayout matches the timestamps of the files under migrations/
const versionLayout = "20060102150405"

var scaffold = template.Must(template.New("migration").Parse(`-- {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Created}}
{{if .Description}}-- {{.Description}}
{{end}}
`))

// MigrationFile describes a scaffolded up/down pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

var (
	nameSeparators = regexp.MustCompile(`[\s_-]+`)
	nameInvalid    = regexp.MustCompile(`[^a-z0-9_]`)
)

// sanitizeName lowercases name and joins its words with single underscores
func sanitizeName(name string) string {
	name = nameSeparators.ReplaceAllString(strings.ToLower(name), "_")
	name = nameInvalid.ReplaceAllString(name, "")
	return strings.Trim(name, "_")
}

// CreateMigration writes an empty up/down pair stamped with now into dir
func CreateMigration(dir, name, description string, now time.Time) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.UTC().Format(versionLayout)
	base := filepath.Join(dir, version+"_"+slug)
	mf := &MigrationFile{
		Version:  version,
		Name:     slug,
		UpPath:   base + ".up.sql",
		DownPath: base + ".down.sql",
	}

	data := map[string]any{
		"Name":        slug,
		"Created":     now.UTC().Format(time.RFC3339),
		"Description": description,
	}
	if err := writeScaffold(mf.UpPath, data, false); err != nil {
		return nil, err
	}
	if err := writeScaffold(mf.DownPath, data, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeScaffold(path string, data map[string]any, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	data["Down"] = down
	if err := scaffold.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ListMigrations returns the base names of the up migrations in dir, oldest
// first. A missing directory has none.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
