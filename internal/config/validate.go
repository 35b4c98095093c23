// CUE schema validation code
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// ValidateWithCue checks YAML bytes against the #Flight definition of a CUE
// schema file. The filename is only used in error positions.
func ValidateWithCue(filename string, yamlBytes []byte, cueFile string) error {
	ctx := cuecontext.New()

	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes, cue.Filename(cueFile))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Flight"))
	if !def.Exists() {
		return fmt.Errorf("CUE schema %s has no #Flight definition", cueFile)
	}

	file, err := cueyaml.Extract(filename, yamlBytes)
	if err != nil {
		return fmt.Errorf("%w: cannot parse YAML config: %v", ErrInvalidConfig, err)
	}
	configVal := ctx.BuildFile(file)

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: schema validation failed: %s", ErrInvalidConfig, cueerrors.Details(err, nil))
	}
	return nil
}
