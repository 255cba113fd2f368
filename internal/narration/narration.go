// Package narration turns quest commands into sentences using a YAML lexicon keyed
// by quest kind and command event.
package narration

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/paniker63/the-tale/internal/quest"
)

var (
	// ErrMissingTemplate is returned when no entry exists for a kind and event.
	ErrMissingTemplate = errors.New("missing narration template")

	// ErrMissingRole is returned when an entry needs a role the quest does not bind.
	ErrMissingRole = errors.New("missing narration role")
)

// Command parameters a template may use besides roles
var paramNames = map[string]bool{
	"number":   true,
	"duration": true,
	"item":     true,
	"power":    true,
}

// Entry is the template for one kind and event
type Entry struct {
	Template string   `yaml:"template"`
	Roles    []string `yaml:"roles"` // Roles the template requires
}

// LexiconData represents the structure of the lexicon YAML file
type LexiconData struct {
	Language string           `yaml:"language"`
	Entries  map[string]Entry `yaml:"entries"` // "<kind>.<event>" -> entry
}

// Lexicon renders quest commands. It is read-only after Load and safe to share.
type Lexicon struct {
	mu      sync.RWMutex
	entries map[string]Entry
	tag     language.Tag
}

// Key returns the lexicon key of an event
func Key(kind quest.Kind, event string) string {
	return string(kind) + "." + event
}

// Load reads a lexicon from a YAML file
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML data. Every placeholder must be a declared role
// or a command parameter.
func Parse(data []byte) (*Lexicon, error) {
	var ld LexiconData
	if err := yaml.Unmarshal(data, &ld); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	lang := ld.Language
	if lang == "" {
		lang = "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid lexicon language %q: %w", lang, err)
	}

	entries := make(map[string]Entry, len(ld.Entries))
	for key, e := range ld.Entries {
		e.Template = strings.TrimSpace(e.Template)
		if e.Template == "" {
			return nil, fmt.Errorf("lexicon entry %q has no template", key)
		}
		declared := make(map[string]bool, len(e.Roles))
		for _, role := range e.Roles {
			declared[role] = true
		}
		for _, name := range placeholders(e.Template) {
			if !declared[name] && !paramNames[name] {
				return nil, fmt.Errorf("lexicon entry %q uses undeclared placeholder {%s}", key, name)
			}
		}
		entries[key] = e
	}

	return &Lexicon{
		entries: entries,
		tag:     tag,
	}, nil
}

// placeholders returns the names inside {braces} in order of appearance
func placeholders(template string) []string {
	var names []string
	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			return names
		}
		names = append(names, template[start+1:start+end])
		template = template[start+end+1:]
	}
}

// Len returns the number of entries
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Keys returns every entry key, sorted
func (l *Lexicon) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Lexicon) entry(kind quest.Kind, event string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[Key(kind, event)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingTemplate, Key(kind, event))
	}
	return e, nil
}

// Render narrates one command of a quest of kind whose roles are bound in actors
func (l *Lexicon) Render(kind quest.Kind, cmd quest.Command, actors *quest.Namespace) (string, error) {
	e, err := l.entry(kind, cmd.Event())
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, 2*(len(e.Roles)+len(paramNames)))
	for _, role := range e.Roles {
		a, ok := actors.Get(role)
		if !ok {
			return "", fmt.Errorf("%w: %s needs %q", ErrMissingRole, Key(kind, cmd.Event()), role)
		}
		pairs = append(pairs, "{"+role+"}", actorName(a))
	}
	pairs = append(pairs, l.params(cmd)...)

	text := strings.NewReplacer(pairs...).Replace(e.Template)
	return l.capitalize(text), nil
}

// params returns replacer pairs for the command's own values
func (l *Lexicon) params(cmd quest.Command) []string {
	p := message.NewPrinter(l.tag)
	switch c := cmd.(type) {
	case quest.Battle:
		return []string{"{number}", p.Sprintf("%d", c.Number())}
	case quest.DoNothing:
		return []string{"{duration}", p.Sprintf("%d", c.Duration())}
	case quest.GetItem:
		return []string{"{item}", c.Item()}
	case quest.GiveItem:
		return []string{"{item}", c.Item()}
	case quest.GivePower:
		return []string{"{power}", p.Sprintf("%+d", c.Power())}
	default:
		return nil
	}
}

// capitalize upper-cases the first word of a sentence
func (l *Lexicon) capitalize(s string) string {
	if s == "" {
		return s
	}
	end := strings.IndexByte(s, ' ')
	if end < 0 {
		end = len(s)
	}
	first := s[:end]
	if r, _ := utf8.DecodeRuneInString(first); r == '{' {
		return s
	}
	// Casers carry state and are not shared between goroutines
	return cases.Title(l.tag, cases.NoLower).String(first) + s[end:]
}

func actorName(a quest.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return a.String()
}

// RenderStep narrates the command a quest's progress points at
func (l *Lexicon) RenderStep(q *quest.Quest, p *quest.Progress) (string, error) {
	cmd, owner, ok := p.Current(q)
	if !ok {
		return "", fmt.Errorf("quest %s has no current step", q.ID)
	}
	return l.Render(owner.Kind, cmd, owner.Actors)
}

// RenderAll narrates a quest in execution order, sub-quests inline
func (l *Lexicon) RenderAll(q *quest.Quest) ([]string, error) {
	var out []string
	for _, cmd := range q.Line.Commands() {
		s, err := l.Render(q.Kind, cmd, q.Actors)
		if err != nil {
			return nil, err
		}
		out = append(out, s)

		if sub, ok := cmd.(quest.SubQuest); ok {
			child := q.Find(sub.Quest())
			if child == nil {
				return nil, fmt.Errorf("quest %s: sub-quest %s not found", q.ID, sub.Quest())
			}
			lines, err := l.RenderAll(child)
			if err != nil {
				return nil, err
			}
			out = append(out, lines...)
		}
	}
	return out, nil
}

// Check verifies that every command of q and its sub-quests can be narrated
func (l *Lexicon) Check(q *quest.Quest) error {
	var errs []error
	for _, cmd := range q.Line.Commands() {
		e, err := l.entry(q.Kind, cmd.Event())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, role := range e.Roles {
			if !q.Actors.Has(role) {
				errs = append(errs, fmt.Errorf("%w: %s needs %q", ErrMissingRole, Key(q.Kind, cmd.Event()), role))
			}
		}
	}
	for _, sq := range q.SubQuests {
		if err := l.Check(sq); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
