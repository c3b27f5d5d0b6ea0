package semantic

import (
	"fmt"

	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/config"
)

// Builtin is a predeclared platform routine
type Builtin struct {
	Name     string
	Type     ast.ExpType
	Params   int
	Hardware bool
}

// Builtins lists every routine the analyzer can predeclare. Hardware entries are
// only injected when the hw-builtins feature is on
var Builtins = []Builtin{
	{Name: "input", Type: ast.Integer},
	{Name: "output", Type: ast.Void, Params: 1},
	{Name: "loadHD", Type: ast.Integer, Params: 2, Hardware: true},
	{Name: "storeHD", Type: ast.Void, Params: 3, Hardware: true},
	{Name: "HDtoIM", Type: ast.Void, Params: 3, Hardware: true},
	{Name: "LCDwrite", Type: ast.Void, Params: 16, Hardware: true},
}

// Declaration synthesizes the function node the parser would have built for b
func (b Builtin) Declaration() *ast.Node {
	var params *ast.Node
	for i := 0; i < b.Params; i++ {
		params = ast.AddSibling(params, ast.NewParameter(0, b.Name, fmt.Sprintf("arg%d", i), ast.Integer, false))
	}
	return ast.NewFunction(0, b.Name, b.Type, params, nil)
}

func (a *Analyzer) declareBuiltins() {
	if !a.cfg.IsFeatureEnabled(config.FeatBuiltins) {
		return
	}
	for _, b := range Builtins {
		if b.Hardware && !a.cfg.IsFeatureEnabled(config.FeatHardwareBuiltins) {
			continue
		}
		a.table.Insert(b.Declaration(), ast.GlobalScope)
	}
}
