package kitchen

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var defaultTableYAML []byte

// TableFile is the on-disk layout of a station table.
type TableFile struct {
	Version    string              `yaml:"version"`
	Categories map[string]string   `yaml:"categories"`
	Keywords   map[string][]string `yaml:"keywords"`
}

// Table maps a category name to a station. Build one with ParseTable,
// LoadTable or DefaultTable.
type Table struct {
	version    string
	categories map[string]Station
	keywords   map[Station][]string
}

// ParseTable validates and normalises a YAML station table.
func ParseTable(data []byte) (*Table, error) {
	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse station table: %w", err)
	}
	if strings.TrimSpace(file.Version) == "" {
		return nil, fmt.Errorf("station table: version is required")
	}

	t := &Table{
		version:    file.Version,
		categories: make(map[string]Station, len(file.Categories)),
		keywords:   make(map[Station][]string, len(file.Keywords)),
	}

	for name, raw := range file.Categories {
		st, ok := ParseStation(raw)
		if !ok {
			return nil, fmt.Errorf("station table: category %q maps to unknown station %q", name, raw)
		}
		t.categories[normalize(name)] = st
	}

	for raw, words := range file.Keywords {
		st, ok := ParseStation(raw)
		if !ok || st == StationDefault {
			return nil, fmt.Errorf("station table: keywords for unknown station %q", raw)
		}
		for _, w := range words {
			if w = normalize(w); w != "" {
				t.keywords[st] = append(t.keywords[st], w)
			}
		}
	}

	return t, nil
}

// LoadTable reads a station table from path. An empty path yields the
// embedded default table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station table: %w", err)
	}
	return ParseTable(data)
}

func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

func (t *Table) Version() string {
	return t.version
}

// Keywords returns the keyword set for st.
func (t *Table) Keywords(st Station) []string {
	return append([]string(nil), t.keywords[st]...)
}

// Classify picks the station for a category name: exact mapping first,
// then a case-insensitive substring match against bar, cold and hot keywords
// in that order, else default.
func (t *Table) Classify(categoryName string) Station {
	name := normalize(categoryName)
	if name == "" {
		return StationDefault
	}
	if st, ok := t.categories[name]; ok {
		return st
	}
	for _, st := range keywordOrder {
		for _, w := range t.keywords[st] {
			if strings.Contains(name, w) {
				return st
			}
		}
	}
	return StationDefault
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
