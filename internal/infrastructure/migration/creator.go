package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationTemplate = `-- {{.Version}}_{{.Name}} ({{.Direction}})
-- Created: {{.Timestamp}}

`

var versionPattern = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// MigrationFile describes a created up/down pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes the next sequentially numbered up/down pair, e.g.
// 000002_add_payment_notes.up.sql
func CreateMigration(dir, name string) (*MigrationFile, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if len(existing) > 0 {
		next = existing[len(existing)-1].Number + 1
	}

	mf := &MigrationFile{
		Version: fmt.Sprintf("%06d", next),
		Name:    clean,
	}
	base := filepath.Join(dir, mf.Version+"_"+clean)
	mf.UpPath = base + ".up.sql"
	mf.DownPath = base + ".down.sql"

	now := time.Now().UTC().Format(time.RFC3339)
	if err := writeMigration(mf.UpPath, mf, "up", now); err != nil {
		return nil, err
	}
	if err := writeMigration(mf.DownPath, mf, "down", now); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigration(path string, mf *MigrationFile, direction, timestamp string) error {
	tmpl := template.Must(template.New("migration").Parse(migrationTemplate))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return tmpl.Execute(f, map[string]string{
		"Version":   mf.Version,
		"Name":      mf.Name,
		"Direction": direction,
		"Timestamp": timestamp,
	})
}

// Migration is one numbered entry found on disk
type Migration struct {
	Number  int
	Name    string
	HasDown bool
}

// ListMigrations returns the migrations in dir ordered by number. A missing
// directory yields an empty list.
func ListMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byNumber := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := versionPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		n, _ := strconv.Atoi(match[1])
		m, ok := byNumber[n]
		if !ok {
			m = &Migration{Number: n, Name: match[2]}
			byNumber[n] = m
		}
		if match[3] == "down" {
			m.HasDown = true
		}
	}

	out := make([]Migration, 0, len(byNumber))
	for _, m := range byNumber {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// sanitizeName lower-cases name and keeps letters, digits and single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
