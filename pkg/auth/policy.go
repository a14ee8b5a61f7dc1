package auth

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// CompilePolicy compiles a CEL expression over the request's claims into a
// Predicate. The expression sees a single variable, claims, for example:
//
//	claims.role == "admin" || claims.user_id == 7
//
// Evaluation errors and non-bool results deny.
func CompilePolicy(expr string) (Predicate, error) {
	env, err := cel.NewEnv(
		cel.Variable("claims", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program for policy %q: %w", expr, err)
	}

	return func(c Claims) bool {
		vars := map[string]any{"claims": map[string]any(c)}
		if c == nil {
			vars["claims"] = map[string]any{}
		}
		out, _, err := program.Eval(vars)
		if err != nil {
			return false
		}
		return out.Type() == types.BoolType && out.Value().(bool)
	}, nil
}
