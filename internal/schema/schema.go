// Package schema holds the closed set of output schemas available to the
// build command. Schemas are registered at startup under a short name;
// resolving an unknown name is a configuration error. This replaces dynamic
// class loading with an explicit registry.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// Field describes one required output field of a schema.
type Field struct {
	Name string
	Kind reflect.Kind
}

// Definition is a named output schema. The prototype struct drives both the
// JSON schema sent alongside prompts and the validation of responses.
type Definition struct {
	Name        string
	Description string
	prototype   any
	fields      []Field
}

var (
	mu       sync.RWMutex
	registry = map[string]*Definition{}
)

// DefaultSample is the default output schema: a prompt and a completion.
type DefaultSample struct {
	Prompt     string `json:"prompt" jsonschema:"description=The generated user prompt or query."`
	Completion string `json:"completion" jsonschema:"description=The generated model completion."`
}

// ReasoningSample additionally captures the model's reasoning trace.
type ReasoningSample struct {
	Prompt     string `json:"prompt" jsonschema:"description=The generated user prompt or query."`
	Completion string `json:"completion" jsonschema:"description=The generated model completion."`
	Reasoning  string `json:"reasoning" jsonschema:"description=The model's reasoning or thought process."`
}

func init() {
	MustRegister("default", "A prompt and a completion.", DefaultSample{})
	MustRegister("with-reasoning", "A prompt, a completion and a reasoning trace.", ReasoningSample{})
}

// Register adds a schema under the given name. The prototype must be a
// struct whose exported fields carry json tags.
func Register(name, description string, prototype any) (*Definition, error) {
	fields, err := structFields(prototype)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %q: %w", name, err)
	}

	def := &Definition{
		Name:        name,
		Description: description,
		prototype:   prototype,
		fields:      fields,
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return nil, fmt.Errorf("schema %q is already registered", name)
	}
	registry[name] = def
	return def, nil
}

// MustRegister is Register for the built-in schemas.
func MustRegister(name, description string, prototype any) *Definition {
	def, err := Register(name, description, prototype)
	if err != nil {
		panic(err)
	}
	return def
}

// Resolve looks up a schema by name. Failure is a fatal configuration error
// at startup, never a per-item failure.
func Resolve(name string) (*Definition, error) {
	mu.RLock()
	defer mu.RUnlock()
	if def, ok := registry[name]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("unknown schema %q (available: %s)", name, strings.Join(names(), ", "))
}

func names() []string {
	all := make([]string, 0, len(registry))
	for name := range registry {
		all = append(all, name)
	}
	sort.Strings(all)
	return all
}

// Fields returns the schema's required fields in declaration order.
func (d *Definition) Fields() []Field {
	return d.fields
}

// JSONSchema renders the schema as a JSON Schema document, suitable for
// embedding in a system prompt to steer structured generation.
func (d *Definition) JSONSchema() (string, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	rendered, err := json.Marshal(reflector.Reflect(d.prototype))
	if err != nil {
		return "", fmt.Errorf("failed to render schema %q: %w", d.Name, err)
	}
	return string(rendered), nil
}

// Decode parses a raw model response against the schema. Markdown code
// fences are stripped before parsing. Every schema field must be present
// with a compatible type; extra fields are dropped.
func (d *Definition) Decode(raw string) (map[string]any, error) {
	cleaned := StripCodeFence(raw)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	result := make(map[string]any, len(d.fields))
	for _, field := range d.fields {
		value, ok := decoded[field.Name]
		if !ok || value == nil {
			return nil, fmt.Errorf("response is missing required field %q", field.Name)
		}
		coerced, err := coerce(value, field.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		result[field.Name] = coerced
	}
	return result, nil
}

// StripCodeFence removes a ```json fence wrapper if present, mirroring how
// models tend to wrap structured output.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```json") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func coerce(value any, kind reflect.Kind) (any, error) {
	switch kind {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return s, nil
	case reflect.Float64, reflect.Int:
		f, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %T", value)
		}
		if kind == reflect.Int {
			return int(f), nil
		}
		return f, nil
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return b, nil
	default:
		return value, nil
	}
}

func structFields(prototype any) ([]Field, error) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prototype must be a struct, got %s", t.Kind())
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fields = append(fields, Field{Name: name, Kind: sf.Type.Kind()})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("prototype has no tagged fields")
	}
	return fields, nil
}
