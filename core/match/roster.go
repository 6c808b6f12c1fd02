// Package match finds roster artists mentioned in program text.
package match

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/radiopipe/core/normalize"
)

// Member is one artist and the names they appear under.
type Member struct {
	Name    string
	Aliases []string
}

// Group is a named collection of members.
type Group struct {
	Name    string
	Members []Member
}

// Roster is the ordered group → member → aliases structure. Groups and
// members are kept in lexicographic order so that discovery order is stable.
type Roster struct {
	Groups []Group
}

// NewRoster builds a Roster from its nested-map document form. Empty aliases
// are dropped since they would match every program.
func NewRoster(raw map[string]map[string][]string) Roster {
	groups := make([]Group, 0, len(raw))
	for _, gname := range sortedKeys(raw) {
		members := raw[gname]
		g := Group{Name: gname, Members: make([]Member, 0, len(members))}
		for _, mname := range sortedKeys(members) {
			aliases := make([]string, 0, len(members[mname]))
			for _, a := range members[mname] {
				if a != "" {
					aliases = append(aliases, a)
				}
			}
			g.Members = append(g.Members, Member{Name: mname, Aliases: aliases})
		}
		groups = append(groups, g)
	}
	return Roster{Groups: groups}
}

// LoadRoster reads a roster document from disk. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("reading roster: %w", err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	r, err := ParseRoster(data, format)
	if err != nil {
		return Roster{}, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return r, nil
}

// ParseRoster normalizes the raw document text, then decodes it.
func ParseRoster(data []byte, format string) (Roster, error) {
	text := []byte(normalize.Text(string(data)))

	var raw map[string]map[string][]string
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(text, &raw)
	case "json":
		err = json.Unmarshal(text, &raw)
	default:
		return Roster{}, fmt.Errorf("unknown roster format %q", format)
	}
	if err != nil {
		return Roster{}, err
	}
	return NewRoster(raw), nil
}

// Artists returns every group and member name in roster order.
func (r Roster) Artists() []string {
	var out []string
	for _, g := range r.Groups {
		out = append(out, g.Name)
		for _, m := range g.Members {
			out = append(out, m.Name)
		}
	}
	return out
}

// MemberCount returns the number of members across all groups.
func (r Roster) MemberCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Members)
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
