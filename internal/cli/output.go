package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/completionist-ai/completionist/internal/style"
)

// printJSON outputs data as formatted JSON
func printJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// printYAML outputs data as YAML
func printYAML(data interface{}) {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding YAML: %v\n", err)
		os.Exit(1)
	}
	encoder.Close()
}

// Success prints a success message
func Success(message string) {
	fmt.Printf("%s %s\n", style.SuccessIcon(), message)
}

// Error prints an error message
func Error(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", style.ErrorIcon(), message)
}

// Warning prints a warning message
func Warning(message string) {
	fmt.Printf("%s %s\n", style.WarningIcon(), message)
}

// Info prints an info message
func Info(message string) {
	fmt.Printf("%s %s\n", style.InfoIcon(), message)
}

// fatal reports a configuration error and exits non-zero before any work is
// attempted.
func fatal(message string) {
	Error(message)
	os.Exit(1)
}
