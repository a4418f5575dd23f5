// Package analyzer provides a static analyzer that detects discarded errors
// from Record methods on recorder types.
//
// A rejected sample is only visible through that error, so production code
// must handle or log it. Test files are not checked.
package analyzer

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const (
	methodName     = "Record"
	receiverSuffix = "Recorder"
)

var Analyzer = &analysis.Analyzer{
	Name: "recordcheck",
	Doc:  "check that errors returned by Recorder.Record are not discarded",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		if isTestFile(pass.Fset.Position(file.Pos()).Filename) {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			switch stmt := n.(type) {
			case *ast.ExprStmt:
				if call, ok := stmt.X.(*ast.CallExpr); ok && isRecordCall(pass, call) {
					pass.Reportf(call.Pos(), "error returned by %s is not checked", calleeName(call))
				}
			case *ast.GoStmt:
				if isRecordCall(pass, stmt.Call) {
					pass.Reportf(stmt.Call.Pos(), "error returned by %s is lost in go statement", calleeName(stmt.Call))
				}
			case *ast.DeferStmt:
				if isRecordCall(pass, stmt.Call) {
					pass.Reportf(stmt.Call.Pos(), "error returned by %s is lost in defer statement", calleeName(stmt.Call))
				}
			case *ast.AssignStmt:
				checkAssign(pass, stmt)
			}
			return true
		})
	}

	return nil, nil
}

// checkAssign reports `_ = r.Record(s)` and parallel assignments that bind a
// Record result to the blank identifier.
func checkAssign(pass *analysis.Pass, stmt *ast.AssignStmt) {
	if len(stmt.Rhs) != 1 {
		for i, rhs := range stmt.Rhs {
			call, ok := rhs.(*ast.CallExpr)
			if ok && i < len(stmt.Lhs) && isBlank(stmt.Lhs[i]) && isRecordCall(pass, call) {
				pass.Reportf(call.Pos(), "error returned by %s is assigned to blank identifier", calleeName(call))
			}
		}
		return
	}

	call, ok := stmt.Rhs[0].(*ast.CallExpr)
	if !ok || !isRecordCall(pass, call) {
		return
	}
	// The error is the last result.
	if isBlank(stmt.Lhs[len(stmt.Lhs)-1]) {
		pass.Reportf(call.Pos(), "error returned by %s is assigned to blank identifier", calleeName(call))
	}
}

// isRecordCall reports whether call invokes a Record method on a type whose
// name ends in Recorder and whose last result is error.
func isRecordCall(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != methodName {
		return false
	}

	fn, ok := pass.TypesInfo.ObjectOf(sel.Sel).(*types.Func)
	if !ok {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return false
	}

	results := sig.Results()
	if results.Len() == 0 || !isErrorType(results.At(results.Len()-1).Type()) {
		return false
	}

	return strings.HasSuffix(receiverName(sig.Recv().Type()), receiverSuffix)
}

// receiverName returns the name of the named type behind t, looking
// through one pointer.
func receiverName(t types.Type) string {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		return named.Obj().Name()
	}
	return ""
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func isBlank(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == "_"
}

func calleeName(call *ast.CallExpr) string {
	sel := call.Fun.(*ast.SelectorExpr)
	if ident, ok := sel.X.(*ast.Ident); ok {
		return ident.Name + "." + sel.Sel.Name
	}
	return sel.Sel.Name
}

func isTestFile(filename string) bool {
	return strings.HasSuffix(filename, "_test.go")
}
