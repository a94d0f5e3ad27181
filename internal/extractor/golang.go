package extractor

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var (
	goImportRe = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
	goFuncRe   = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?(\w+)`)
	goTypeRe   = regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)`)
	goConstRe  = regexp.MustCompile(`^\t?(\w+)\s*=`)
)

func extractGoBase(ctx *types.FileContext, lines []string) {
	inImports := false
	inConsts := false
	for _, line := range prefix(lines, maxPrefixLines) {
		switch {
		case strings.HasPrefix(line, "import ("):
			inImports = true
		case strings.HasPrefix(line, "const ("):
			inConsts = true
		case inImports || inConsts:
			if strings.HasPrefix(line, ")") {
				inImports, inConsts = false, false
				continue
			}
			if inImports {
				if m := goImportRe.FindStringSubmatch(line); m != nil && len(ctx.Imports) < maxBaseImports {
					ctx.Imports = append(ctx.Imports, m[1])
				}
			} else if m := goConstRe.FindStringSubmatch(line); m != nil && len(ctx.Constants) < maxConstants {
				ctx.Constants = append(ctx.Constants, m[1])
			}
		case strings.HasPrefix(line, "func "):
			if m := goFuncRe.FindStringSubmatch(line); m != nil && len(ctx.Functions) < maxFunctions {
				ctx.Functions = append(ctx.Functions, m[1])
			}
		case strings.HasPrefix(line, "type "):
			if m := goTypeRe.FindStringSubmatch(line); m != nil {
				ctx.Classes = append(ctx.Classes, m[1])
			}
		}
	}
}
