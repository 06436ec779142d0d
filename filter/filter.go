package filter

import (
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/hivecraft/portal/globals"
)

// Env is the expression environment a recipient filter is evaluated
// against, one instance per candidate connection. Filters are attached to
// dispatch events to narrow delivery within a room, f.e.
// `Role in ["admin", "billing"] or Role == "client"` on invoice updates.
type Env struct {
	UserId     string
	Role       string
	IsStaff    bool
	ProjectIds []string
	Event      string
}

// Compile compiles a recipient filter expression.
func Compile(filterExpr string) (*vm.Program, error) {
	return expr.Compile(filterExpr, expr.Env(Env{}), expr.AsBool())
}

// Run evaluates a compiled filter against one recipient environment. A nil
// program passes everyone, an evaluation error drops the recipient.
func Run(prog *vm.Program, env Env) bool {
	if prog == nil {
		return true
	}
	res, err := expr.Run(prog, env)
	if err != nil {
		globals.AppLogger.Error("could not run filter", "error", err)
		return false
	}
	pass, ok := res.(bool)
	return ok && pass
}
