package integrity

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/gpos/internal/model"
)

//go:embed settings.cue
var settingsSchemaSrc string

// schema holds the compiled settings constraints.
// A cue.Context is not safe for concurrent use, so access is serialized.
type schema struct {
	mu       sync.Mutex
	ctx      *cue.Context
	taxRate  cue.Value
	settings cue.Value
}

var (
	schemaOnce sync.Once
	compiled   *schema
	schemaErr  error
)

// loadSchema compiles the embedded CUE schema once per process.
func loadSchema() (*schema, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(settingsSchemaSrc, cue.Filename("settings.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile settings schema: %w", err)
			return
		}
		compiled = &schema{
			ctx:      ctx,
			taxRate:  v.LookupPath(cue.ParsePath("#TaxRate")),
			settings: v.LookupPath(cue.ParsePath("#Settings")),
		}
	})
	return compiled, schemaErr
}

// validTaxRate reports whether v satisfies #TaxRate.
func (s *schema) validTaxRate(v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded := s.ctx.Encode(v)
	if encoded.Err() != nil {
		return false
	}
	return s.taxRate.Unify(encoded).Validate(cue.Concrete(true)) == nil
}

// violations lists every way settings fails #Settings, one message each.
func (s *schema) violations(settings model.Settings) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded := s.ctx.Encode(map[string]any(settings))
	err := encoded.Err()
	if err == nil {
		err = s.settings.Unify(encoded).Validate(cue.Concrete(true))
	}
	if err == nil {
		return nil
	}
	var out []string
	for _, e := range cueerrors.Errors(err) {
		out = append(out, e.Error())
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}

// ErrInvalidSettings is returned by ValidateSettings.
var ErrInvalidSettings = errors.New("invalid settings")

// ValidateSettings checks a complete settings map against the schema the
// integrity check enforces at load time.
func ValidateSettings(settings model.Settings) error {
	sch, err := loadSchema()
	if err != nil {
		return err
	}
	problems := sch.violations(settings)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}
