package extractor

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var (
	javaImportRe     = regexp.MustCompile(`import\s+([\w.]+)`)
	javaClassRe      = regexp.MustCompile(`class\s+(\w+)`)
	javaAnnotationRe = regexp.MustCompile(`@(\w+)`)
	javaInterfaceRe  = regexp.MustCompile(`interface\s+(\w+)`)
	javaMethodRe     = regexp.MustCompile(`(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\]]+\s+(\w+)\s*\(`)
)

func extractJavaBase(ctx *types.FileContext, lines []string) {
	for _, line := range prefix(lines, maxHeaderLines) {
		switch {
		case strings.Contains(line, "import "):
			if m := javaImportRe.FindStringSubmatch(line); m != nil && len(ctx.Imports) < maxBaseImports {
				ctx.Imports = append(ctx.Imports, m[1])
			}
		case strings.Contains(line, "class "):
			if m := javaClassRe.FindStringSubmatch(line); m != nil {
				ctx.Classes = append(ctx.Classes, m[1])
			}
		default:
			if m := javaMethodRe.FindStringSubmatch(line); m != nil && len(ctx.Functions) < maxFunctions {
				ctx.Functions = append(ctx.Functions, m[1])
			}
		}
	}
}

func extractJava(lines []string) *types.JavaContext {
	jc := &types.JavaContext{}

	annotations := newDedupe(maxAnnotations)
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "@") {
			if m := javaAnnotationRe.FindStringSubmatch(stripped); m != nil {
				annotations.add(m[1])
			}
		}
	}
	jc.Annotations = annotations.sorted()

	interfaces := newDedupe(maxInterfaces)
	for _, line := range prefix(lines, maxPrefixLines) {
		if strings.Contains(line, "interface ") {
			if m := javaInterfaceRe.FindStringSubmatch(line); m != nil {
				interfaces.add(m[1])
			}
		}
	}
	jc.Interfaces = interfaces.items

	return jc
}
