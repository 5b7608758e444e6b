// Package schema validates scenario packs and override lists against
// the embedded CUE definitions before anything reaches the core.
// Malformed shape is the caller's problem to surface loudly (the core
// never coerces garbage into a plausible decision), and CUE gives the
// caller positioned, field-level messages to surface it with.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed pack.cue
var schemaSource string

// ValidatePack checks raw pack JSON against #Pack.
func ValidatePack(data []byte) error {
	return validate(data, "#Pack")
}

// ValidateOverrides checks raw override-list JSON against #Overrides.
func ValidateOverrides(data []byte) error {
	return validate(data, "#Overrides")
}

func validate(data []byte, defPath string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("pack.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if !def.Exists() {
		return fmt.Errorf("schema definition %s not found", defPath)
	}

	expr, err := cuejson.Extract("input.json", data)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	val := ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("build input: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("input does not satisfy %s: %w", defPath, err)
	}
	return nil
}
