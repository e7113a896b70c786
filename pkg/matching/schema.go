package matching

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema compiles schema and returns a matcher accepting decoded JSON
// values that validate against it.
func JSONSchema(schema string) (Matcher[any], error) {
	compiled, err := jsonschema.CompileString("schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	return Func("valid against JSON schema", func(v any) bool {
		return compiled.Validate(v) == nil
	}), nil
}
