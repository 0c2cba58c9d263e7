package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FlowsDocument(t *testing.T) {
	defs, err := Parse(strings.NewReader(`
flows:
  - id: hello
    start: a
    steps:
      a:
        say: ["Hello"]
        choices:
          - {label: Again, next: a}
`))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "hello", defs[0].ID)
}

func TestParse_SingleDefinition(t *testing.T) {
	defs, err := Parse(strings.NewReader(`
id: single
start: a
steps:
  a:
    say: ["Only step"]
`))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "single", defs[0].ID)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "misspelt save in single definition",
			yaml: `
id: typo
start: a
steps:
  a:
    say: ["Pick one"]
    saev: pick
    choices:
      - {label: Red, next: a}
`,
		},
		{
			name: "unknown flow key in flows document",
			yaml: `
flows:
  - id: typo
    start: a
    fallbak: "Try again"
    steps:
      a:
        say: ["Hi"]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "script: decode")
		})
	}
}

func TestParse_EmptyFlowsList(t *testing.T) {
	_, err := Parse(strings.NewReader("flows: []\n"))
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{
			name: "missing id",
			def:  Definition{Start: "a", Steps: map[string]Step{"a": {Say: []string{"x"}}}},
			want: "missing id",
		},
		{
			name: "unknown start",
			def:  Definition{ID: "f", Start: "b", Steps: map[string]Step{"a": {Say: []string{"x"}}}},
			want: "start step",
		},
		{
			name: "dangling choice",
			def: Definition{ID: "f", Start: "a", Steps: map[string]Step{
				"a": {Say: []string{"x"}, Choices: []Choice{{Label: "Go", Next: "nowhere"}}},
			}},
			want: "unknown step",
		},
		{
			name: "duplicate label",
			def: Definition{ID: "f", Start: "a", Steps: map[string]Step{
				"a": {Say: []string{"x"}, Choices: []Choice{{Label: "Go", Next: "a"}, {Label: "go ", Next: "a"}}},
			}},
			want: "repeats choice",
		},
		{
			name: "labels equal only under full case folding",
			def: Definition{ID: "f", Start: "a", Steps: map[string]Step{
				"a": {Say: []string{"x"}, Choices: []Choice{{Label: "Yes", Next: "a"}, {Label: "Yeſ", Next: "a"}}},
			}},
			want: "repeats choice",
		},
		{
			name: "silent step",
			def:  Definition{ID: "f", Start: "a", Steps: map[string]Step{"a": {}}},
			want: "says nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			require.ErrorIs(t, err, ErrInvalidDefinition)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuiltin(t *testing.T) {
	defs := Builtin()
	require.Len(t, defs, 1)
	assert.Equal(t, "guest_place_order", defs[0].ID)
	assert.Equal(t, "Place an Order", defs[0].Title)
}
