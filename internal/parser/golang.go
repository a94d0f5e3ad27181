package parser

import (
	"go/ast"
	goparser "go/parser"
	"go/token"
	"sort"

	"github.com/otto-pm/repoindex/pkg/types"
)

// goAnalyzer uses the real Go AST rather than pattern matching. Syntax
// errors are tolerated: whatever declarations survive partial parsing
// are still reported.
type goAnalyzer struct{}

func (a *goAnalyzer) Language() string { return "go" }

func (a *goAnalyzer) Analyze(content string) ([]Span, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, "src.go", content, 0)
	if file == nil {
		return nil, err
	}

	var spans []Span
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			kind := types.ChunkFunction
			if d.Recv != nil {
				kind = types.ChunkMethod
			}
			spans = append(spans, Span{
				StartLine: fset.Position(d.Pos()).Line - 1,
				EndLine:   fset.Position(d.End()).Line,
				Kind:      kind,
				Name:      d.Name.Name,
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if _, isStruct := ts.Type.(*ast.StructType); !isStruct {
					if _, isIface := ts.Type.(*ast.InterfaceType); !isIface {
						continue
					}
				}
				spans = append(spans, Span{
					StartLine: fset.Position(d.Pos()).Line - 1,
					EndLine:   fset.Position(d.End()).Line,
					Kind:      types.ChunkClass,
					Name:      ts.Name.Name,
				})
			}
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].StartLine < spans[j].StartLine })
	return spans, nil
}
