package inference

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MustCompileSchema compiles an inline JSON schema document and panics on error.
// Intended for package-level schema variables.
func MustCompileSchema(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic("inference: add schema " + name + ": " + err.Error())
	}
	return compiler.MustCompile(name)
}
