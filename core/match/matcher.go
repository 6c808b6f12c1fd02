package match

import (
	"strings"
	"sync/atomic"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// ReservedGroup is the alumni group. Its name is never matched as text,
// though its members are.
const ReservedGroup = "OG"

// 高橋愛 is a substring of the unrelated name 高橋愛子.
const (
	ambiguousMember = "高橋愛"
	ambiguousName   = "高橋愛子"
)

// Matcher reports which roster artists a program mentions.
type Matcher struct {
	roster Roster
}

// NewMatcher creates a Matcher over roster.
func NewMatcher(roster Roster) *Matcher {
	return &Matcher{roster: roster}
}

// Roster returns the roster the matcher was built with.
func (m *Matcher) Roster() Roster {
	return m.roster
}

// Match returns the names of every group and member mentioned in p's title,
// description, info or performers, without duplicates, in discovery order.
func (m *Matcher) Match(p core.ProgramRecord) []string {
	fields := texts(p)
	var found []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			found = append(found, name)
		}
	}

	for _, g := range m.roster.Groups {
		if g.Name != ReservedGroup && containsAny(fields, g.Name) {
			add(g.Name)
		}
	}

	for _, g := range m.roster.Groups {
		for _, member := range g.Members {
			for _, alias := range member.Aliases {
				if !containsAny(fields, alias) {
					continue
				}
				if member.Name == ambiguousMember && containsAny(fields, ambiguousName) {
					continue
				}
				add(member.Name)
				break
			}
		}
	}
	return found
}

// MatchAll pairs every program with every artist it mentions, in program order.
func (m *Matcher) MatchAll(programs []core.ProgramRecord) []core.Match {
	var out []core.Match
	for _, p := range programs {
		for _, artist := range m.Match(p) {
			out = append(out, core.Match{Artist: artist, Program: p})
		}
	}
	return out
}

func texts(p core.ProgramRecord) []string {
	out := []string{p.Title}
	for _, v := range []*string{p.Description, p.Info, p.Performers} {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func containsAny(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(f, needle) {
			return true
		}
	}
	return false
}

// Holder shares the current Matcher between a running cycle and a roster
// reloader.
type Holder struct {
	p atomic.Pointer[Matcher]
}

// NewHolder creates a Holder containing m.
func NewHolder(m *Matcher) *Holder {
	h := &Holder{}
	h.p.Store(m)
	return h
}

// Load returns the current Matcher.
func (h *Holder) Load() *Matcher {
	return h.p.Load()
}

// Store replaces the current Matcher.
func (h *Holder) Store(m *Matcher) {
	h.p.Store(m)
}
