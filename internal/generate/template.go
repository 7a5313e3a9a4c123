package generate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// FormatTemplate substitutes {name} placeholders in a prompt template with
// the matching row fields. A placeholder without a matching field is an
// error naming the placeholder and the columns that are available.
func FormatTemplate(template string, row map[string]any) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := row[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return Stringify(value)
	})
	if missing != "" {
		return "", fmt.Errorf("the placeholder {%s} in your prompt template was not found as a column in the dataset (available columns: %s)",
			missing, strings.Join(columnNames(row), ", "))
	}
	return out, nil
}

// HasPlaceholder reports whether the template references the given name.
func HasPlaceholder(template, name string) bool {
	return strings.Contains(template, "{"+name+"}")
}

// Stringify renders a row value for prompt interpolation.
func Stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func columnNames(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for name := range row {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}
