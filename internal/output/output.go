package output

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use yaml or json)", s)
	}
}

// StatusResult is the output of the `status` command.
type StatusResult struct {
	Backend   string   `yaml:"backend"            json:"backend"`
	Device    string   `yaml:"device,omitempty"   json:"device,omitempty"`
	Active    bool     `yaml:"active"             json:"active"`
	KeepAlive bool     `yaml:"keepAlive"          json:"keepAlive"`
	Status    string   `yaml:"status,omitempty"   json:"status,omitempty"`
	Backends  []string `yaml:"backends,omitempty" json:"backends,omitempty"`
}

// ActionResult is the output of the `tap` command.
type ActionResult struct {
	X         int  `yaml:"x"         json:"x"`
	Y         int  `yaml:"y"         json:"y"`
	Completed bool `yaml:"completed" json:"completed"`
}

// ErrorResult is how a failed command is reported to controllers.
type ErrorResult struct {
	Code    string `yaml:"code"    json:"code"`
	Message string `yaml:"message" json:"message"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// JSON returns v as compact JSON text without a trailing newline.
func JSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json encode: %w", err)
	}
	return string(b), nil
}
