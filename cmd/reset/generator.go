package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"
	"strings"
)

const marker = "generate:reset"

// Generate parses the non-test, non-generated Go files in dir and returns
// the source of reset.gen.go, or nil when no struct carries the marker.
func Generate(dir string) ([]byte, error) {
	fset := token.NewFileSet()
	files, err := parseDir(fset, dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		// Keep going: a missing Reset method is exactly what is being generated.
		Error: func(error) {},
	}
	info := &types.Info{Defs: make(map[*ast.Ident]types.Object)}
	pkg, _ := conf.Check(files[0].Name.Name, fset, files, info)

	g := &generator{pkg: pkg, imports: make(map[string]string)}
	for _, file := range files {
		for _, spec := range markedStructs(file) {
			obj, ok := info.Defs[spec.Name].(*types.TypeName)
			if !ok {
				continue
			}
			g.method(obj)
		}
	}
	if g.body.Len() == 0 {
		return nil, nil
	}
	return g.source()
}

func parseDir(fset *token.FileSet, dir string) ([]*ast.File, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}

	var files []*ast.File
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") || filepath.Base(path) == outputFile {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// markedStructs returns the struct type specs documented with the marker,
// either on the type keyword or on the spec inside a grouped declaration.
func markedStructs(file *ast.File) []*ast.TypeSpec {
	var specs []*ast.TypeSpec
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			spec := s.(*ast.TypeSpec)
			if _, ok := spec.Type.(*ast.StructType); !ok {
				continue
			}
			if hasMarker(spec.Doc) || (len(gen.Specs) == 1 && hasMarker(gen.Doc)) {
				specs = append(specs, spec)
			}
		}
	}
	return specs
}

func hasMarker(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.Contains(c.Text, marker) {
			return true
		}
	}
	return false
}

type generator struct {
	pkg     *types.Package
	imports map[string]string // path -> name
	body    bytes.Buffer
}

func (g *generator) method(obj *types.TypeName) {
	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		return
	}

	fmt.Fprintf(&g.body, "// Reset clears %s for reuse, keeping allocated capacity.\n", obj.Name())
	fmt.Fprintf(&g.body, "func (x *%s) Reset() {\n", obj.Name())
	g.body.WriteString("\tif x == nil {\n\t\treturn\n\t}\n")
	for i := range st.NumFields() {
		f := st.Field(i)
		if f.Name() == "_" {
			continue
		}
		g.field("x."+f.Name(), f.Type())
	}
	g.body.WriteString("}\n\n")
}

// field writes the statement that resets one field.
func (g *generator) field(access string, t types.Type) {
	switch u := t.Underlying().(type) {
	case *types.Slice:
		fmt.Fprintf(&g.body, "\t%s = %s[:0]\n", access, access)
	case *types.Map:
		fmt.Fprintf(&g.body, "\tclear(%s)\n", access)
	case *types.Pointer:
		if hasReset(u) {
			fmt.Fprintf(&g.body, "\tif %s != nil {\n\t\t%s.Reset()\n\t}\n", access, access)
			return
		}
		fmt.Fprintf(&g.body, "\tif %s != nil {\n\t\t*%s = %s\n\t}\n", access, access, g.zero(u.Elem()))
	case *types.Struct:
		if hasReset(types.NewPointer(t)) {
			fmt.Fprintf(&g.body, "\t%s.Reset()\n", access)
			return
		}
		fmt.Fprintf(&g.body, "\t%s = %s\n", access, g.zero(t))
	default:
		fmt.Fprintf(&g.body, "\t%s = %s\n", access, g.zero(t))
	}
}

// zero returns the zero value expression of t.
func (g *generator) zero(t types.Type) string {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return "false"
		case u.Info()&types.IsString != 0:
			return `""`
		case u.Info()&types.IsNumeric != 0:
			return "0"
		}
		return "nil"
	case *types.Struct, *types.Array:
		return types.TypeString(t, g.qualify) + "{}"
	default:
		return "nil"
	}
}

func (g *generator) qualify(p *types.Package) string {
	if p == g.pkg {
		return ""
	}
	g.imports[p.Path()] = p.Name()
	return p.Name()
}

func (g *generator) source() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by reset generator; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", g.pkg.Name())

	if len(g.imports) > 0 {
		paths := make([]string, 0, len(g.imports))
		for path := range g.imports {
			paths = append(paths, path)
		}
		slices.Sort(paths)
		buf.WriteString("import (\n")
		for _, path := range paths {
			fmt.Fprintf(&buf, "\t%q\n", path)
		}
		buf.WriteString(")\n\n")
	}
	buf.Write(g.body.Bytes())

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return formatted, nil
}

func hasReset(t types.Type) bool {
	obj, _, _ := types.LookupFieldOrMethod(t, true, nil, "Reset")
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig := fn.Type().(*types.Signature)
	return sig.Params().Len() == 0 && sig.Results().Len() == 0
}
