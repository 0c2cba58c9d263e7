package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/aretw0/pressline/pkg/driver"
	"github.com/mitchellh/mapstructure"
)

// Flow runs a Definition. It keeps the position and variables of one
// conversation; Fork gives each conversation its own copy.
type Flow struct {
	def   *Definition
	texts map[string][]*template.Template

	mu      sync.Mutex
	current string
	vals    map[string]string

	// saved holds the keys set by a step's save. Caller vars never
	// overwrite them.
	saved map[string]bool
}

// New compiles def into a runnable flow.
func New(def Definition) (*Flow, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if def.Fallback == "" {
		def.Fallback = DefaultFallback
	}

	texts := make(map[string][]*template.Template, len(def.Steps))
	for name, step := range def.Steps {
		for i, line := range step.Say {
			tmpl, err := template.New(fmt.Sprintf("%s.%s.%d", def.ID, name, i)).
				Option("missingkey=zero").
				Parse(line)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: step %q: %v", ErrInvalidDefinition, def.ID, name, err)
			}
			texts[name] = append(texts[name], tmpl)
		}
	}

	return &Flow{
		def:     &def,
		texts:   texts,
		current: def.Start,
		vals:    make(map[string]string),
		saved:   make(map[string]bool),
	}, nil
}

// Title returns the human-readable name of the flow.
func (f *Flow) Title() string {
	return f.def.Title
}

// Fork returns a copy positioned at the start step with no variables.
func (f *Flow) Fork() driver.ScriptedFlow {
	return &Flow{
		def:     f.def,
		texts:   f.texts,
		current: f.def.Start,
		vals:    make(map[string]string),
		saved:   make(map[string]bool),
	}
}

// Initial resets the flow and says the start step.
func (f *Flow) Initial(ctx context.Context, vars map[string]any) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current = f.def.Start
	f.vals = make(map[string]string)
	f.saved = make(map[string]bool)
	f.merge(vars)
	return f.say(f.current)
}

// Respond follows the choice matching input, or repeats the fallback.
func (f *Flow) Respond(ctx context.Context, vars map[string]any, input string) driver.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.merge(vars)
	step := f.def.Steps[f.current]
	for _, c := range step.Choices {
		if !strings.EqualFold(strings.TrimSpace(c.Label), strings.TrimSpace(input)) {
			continue
		}
		if step.Save != "" {
			f.vals[step.Save] = c.Label
			f.saved[step.Save] = true
		}
		f.current = c.Next
		return driver.Reply{
			Messages:     f.say(f.current),
			QuickReplies: f.labels(),
		}
	}
	return driver.Reply{
		Messages:     []string{f.def.Fallback},
		QuickReplies: f.labels(),
	}
}

// QuickReplies returns the choice labels of the current step.
func (f *Flow) QuickReplies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labels()
}

// Done reports whether the flow reached a terminal step.
func (f *Flow) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.def.Steps[f.current].Choices) == 0
}

func (f *Flow) labels() []string {
	choices := f.def.Steps[f.current].Choices
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}

func (f *Flow) say(step string) []string {
	tmpls := f.texts[step]
	out := make([]string, 0, len(tmpls))
	for i, tmpl := range tmpls {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, f.vals); err != nil {
			// Fall back to the raw line rather than dropping it.
			out = append(out, f.def.Steps[step].Say[i])
			continue
		}
		out = append(out, sb.String())
	}
	return out
}

// merge folds caller vars into the flow's variables. Scalars of any type are
// accepted and rendered as strings; unconvertible values are ignored. Keys
// already set by a save keep the user's choice.
func (f *Flow) merge(vars map[string]any) {
	if len(vars) == 0 {
		return
	}
	for k, v := range vars {
		if f.saved[k] {
			continue
		}
		var s string
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &s,
		})
		if err != nil {
			continue
		}
		if err := dec.Decode(v); err != nil {
			continue
		}
		f.vals[k] = s
	}
}
