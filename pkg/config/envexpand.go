package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv substitutes {{.VAR}} placeholders in bootstrap YAML with
// environment variable values. Template syntax is used instead of $VAR
// expansion because the files legitimately contain dollar signs (price
// strings, regex fragments in pre-filter overrides) that must survive
// untouched. A variable that is not set expands to the empty string;
// required-field validation reports it afterwards.
//
// Content that does not parse as a template, or fails to execute, is
// returned unchanged so template-free files always pass through.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("bootstrap").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	env := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, env); err != nil {
		return data
	}
	return out.Bytes()
}
