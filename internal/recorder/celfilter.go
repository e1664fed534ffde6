package recorder

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/colinclerk/sr/internal/batch"
)

// celFilter wraps a compiled CEL program evaluated against single events.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("type", cel.IntType),
		cel.Variable("timestamp", cel.IntType),
		// Index of the segment the event belongs to
		cel.Variable("segment", cel.IntType),
		// Parsed event JSON for field filtering
		cel.Variable("event", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return celFilter{}, &filterTypeError{got: t.String()}
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

type filterTypeError struct{ got string }

func (e *filterTypeError) Error() string {
	return "filter must evaluate to bool, got " + e.got
}

// Eval reports whether ev passes the filter. Evaluation errors exclude the event.
func (f celFilter) Eval(segment int, ev batch.Event) bool {
	if !f.enabled {
		return true
	}
	var obj any
	_ = json.Unmarshal(ev.Raw, &obj)
	out, _, err := f.prog.Eval(map[string]any{
		"type":      int64(ev.Type),
		"timestamp": ev.Timestamp,
		"segment":   int64(segment),
		"event":     obj,
		"now_ms":    time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
