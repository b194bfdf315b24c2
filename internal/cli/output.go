package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type renderer func(w io.Writer, v any, text func(io.Writer) error) error

func newRenderer(format string) (renderer, error) {
	switch format {
	case formatText, "":
		return func(w io.Writer, _ any, text func(io.Writer) error) error { return text(w) }, nil
	case formatJSON:
		return func(w io.Writer, v any, _ func(io.Writer) error) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}, nil
	case formatYAML:
		return func(w io.Writer, v any, _ func(io.Writer) error) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
