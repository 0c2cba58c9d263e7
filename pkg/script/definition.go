package script

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/pressline/pkg/domain"
)

// ErrInvalidDefinition is returned for scripts that cannot be executed.
var ErrInvalidDefinition = errors.New("invalid script definition")

// DefaultFallback is said when the input matches no choice of the step.
const DefaultFallback = "Please choose one of the options."

//go:embed builtin/guest_place_order.yaml
var guestPlaceOrder []byte

// Choice is a labelled edge to another step.
type Choice struct {
	Label string `yaml:"label"`
	Next  string `yaml:"next"`
}

// Step is one position of a scripted conversation. A step without choices is
// terminal.
type Step struct {
	Say     []string `yaml:"say"`
	Choices []Choice `yaml:"choices"`

	// Save names the variable that receives the chosen label.
	Save string `yaml:"save,omitempty"`
}

// Definition is the data of a scripted flow.
type Definition struct {
	ID       string          `yaml:"id"`
	Title    string          `yaml:"title"`
	Start    string          `yaml:"start"`
	Fallback string          `yaml:"fallback,omitempty"`
	Steps    map[string]Step `yaml:"steps"`
}

// Validate checks that every step reference resolves.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}
	if _, ok := d.Steps[d.Start]; !ok {
		return fmt.Errorf("%w: %s: start step %q not defined", ErrInvalidDefinition, d.ID, d.Start)
	}
	for name, step := range d.Steps {
		if len(step.Say) == 0 {
			return fmt.Errorf("%w: %s: step %q says nothing", ErrInvalidDefinition, d.ID, name)
		}
		seen := make(map[string]bool, len(step.Choices))
		for _, c := range step.Choices {
			if strings.TrimSpace(c.Label) == "" {
				return fmt.Errorf("%w: %s: step %q has an empty choice label", ErrInvalidDefinition, d.ID, name)
			}
			key := domain.FoldLabel(c.Label)
			if seen[key] {
				return fmt.Errorf("%w: %s: step %q repeats choice %q", ErrInvalidDefinition, d.ID, name, c.Label)
			}
			seen[key] = true
			if _, ok := d.Steps[c.Next]; !ok {
				return fmt.Errorf("%w: %s: step %q points to unknown step %q", ErrInvalidDefinition, d.ID, name, c.Next)
			}
		}
	}
	return nil
}

type document struct {
	Flows []Definition `yaml:"flows"`
}

// Parse decodes either a single definition or a document with a flows list.
// Unknown keys are rejected so that a misspelt field fails loudly.
func Parse(r io.Reader) ([]Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("script: read: %w", err)
	}

	var shape map[string]yaml.Node
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("script: decode: %w", err)
	}

	var defs []Definition
	if _, ok := shape["flows"]; ok {
		var doc document
		if err := decodeStrict(data, &doc); err != nil {
			return nil, err
		}
		defs = doc.Flows
	} else {
		var single Definition
		if err := decodeStrict(data, &single); err != nil {
			return nil, err
		}
		defs = []Definition{single}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: flows list is empty", ErrInvalidDefinition)
	}

	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("script: decode: %w", err)
	}
	return nil
}

// Builtin returns the definitions shipped with the binary.
func Builtin() []Definition {
	defs, err := Parse(bytes.NewReader(guestPlaceOrder))
	if err != nil {
		panic(fmt.Sprintf("script: builtin definitions: %v", err))
	}
	return defs
}
