package config

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed profile.cue
var profileSchema []byte

// schemaValidator checks decoded profile documents against #Profile.
type schemaValidator struct {
	ctx *cue.Context
	def cue.Value
}

var (
	schemaOnce sync.Once
	schema     *schemaValidator
	schemaErr  error
)

// profileValidator compiles the embedded schema once. A cue.Context is not
// safe for concurrent use, so validation is serialized.
func profileValidator() (*schemaValidator, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileBytes(profileSchema, cue.Filename("profile.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile profile schema: %w", err)
			return
		}
		def := v.LookupPath(cue.ParsePath("#Profile"))
		if !def.Exists() {
			schemaErr = fmt.Errorf("profile schema has no #Profile definition")
			return
		}
		schema = &schemaValidator{ctx: ctx, def: def}
	})
	return schema, schemaErr
}

var validateMu sync.Mutex

// validate unifies data with #Profile and requires every field concrete.
func (s *schemaValidator) validate(data map[string]any) error {
	validateMu.Lock()
	defer validateMu.Unlock()

	val := s.ctx.Encode(data)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrInvalidProfile, err)
	}
	unified := s.def.Unify(val)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}
