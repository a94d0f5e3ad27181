package extractor

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var (
	jsFromRe      = regexp.MustCompile(`from\s+['"]([^'"]+)['"]`)
	jsRequireRe   = regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`)
	jsClassRe     = regexp.MustCompile(`class\s+(\w+)`)
	jsDeclRe      = regexp.MustCompile(`(?:function|const|let|var)\s+(\w+)`)
	jsExportRe    = regexp.MustCompile(`export\s+(?:const|let|var|function|class|interface|type|enum)\s+(\w+)`)
	jsDefaultRe   = regexp.MustCompile(`export\s+default\s+(\w+)`)
	jsAsyncRes    = []*regexp.Regexp{
		regexp.MustCompile(`async\s+function\s+(\w+)`),
		regexp.MustCompile(`async\s+(\w+)\s*\(`),
		regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*async`),
	}
	tsInterfaceRe = regexp.MustCompile(`interface\s+(\w+)`)
	tsTypeRe      = regexp.MustCompile(`type\s+(\w+)\s*=`)
	tsEnumRe      = regexp.MustCompile(`enum\s+(\w+)`)
)

func extractScriptBase(ctx *types.FileContext, lines []string) {
	for _, line := range prefix(lines, maxHeaderLines) {
		switch {
		case strings.Contains(line, "import") && strings.Contains(line, "from"):
			if m := jsFromRe.FindStringSubmatch(line); m != nil && len(ctx.Imports) < maxBaseImports {
				ctx.Imports = append(ctx.Imports, m[1])
			}
		case strings.Contains(line, "require("):
			if m := jsRequireRe.FindStringSubmatch(line); m != nil && len(ctx.Imports) < maxBaseImports {
				ctx.Imports = append(ctx.Imports, m[1])
			}
		case strings.Contains(line, "class "):
			if m := jsClassRe.FindStringSubmatch(line); m != nil {
				ctx.Classes = append(ctx.Classes, m[1])
			}
		default:
			if m := jsDeclRe.FindStringSubmatch(line); m != nil && len(ctx.Functions) < maxFunctions {
				ctx.Functions = append(ctx.Functions, m[1])
			}
		}
	}
}

func extractScript(lines []string, typescript bool) *types.ScriptContext {
	sc := &types.ScriptContext{}

	exports := newDedupe(maxExports)
	for _, line := range prefix(lines, maxPrefixLines) {
		if !strings.Contains(line, "export") {
			continue
		}
		if m := jsDefaultRe.FindStringSubmatch(line); m != nil {
			if sc.DefaultExport == "" {
				sc.DefaultExport = m[1]
			}
			continue
		}
		if m := jsExportRe.FindStringSubmatch(line); m != nil {
			exports.add(m[1])
		}
	}
	sc.NamedExports = exports.items

	async := newDedupe(maxAsync)
	for _, line := range lines {
		if !strings.Contains(line, "async") {
			continue
		}
		for _, re := range jsAsyncRes {
			if m := re.FindStringSubmatch(line); m != nil && m[1] != "function" {
				async.add(m[1])
				break
			}
		}
	}
	sc.AsyncFunctions = async.items

	if typescript {
		interfaces := newDedupe(maxInterfaces)
		aliases := newDedupe(maxTypeAliases)
		enums := newDedupe(maxEnums)
		for _, line := range lines {
			if strings.Contains(line, "interface ") {
				if m := tsInterfaceRe.FindStringSubmatch(line); m != nil {
					interfaces.add(m[1])
				}
			}
			if m := tsTypeRe.FindStringSubmatch(line); m != nil {
				aliases.add(m[1])
			}
			if strings.Contains(line, "enum ") {
				if m := tsEnumRe.FindStringSubmatch(line); m != nil {
					enums.add(m[1])
				}
			}
		}
		sc.Interfaces = interfaces.items
		sc.TypeAliases = aliases.items
		sc.Enums = enums.items
	}

	return sc
}
