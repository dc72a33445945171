package matcher

import "regexp"

var templateVarsRE = regexp.MustCompile(`\$\{([^}]*)\}`)

// TemplateString is user-authored text with ${name}/${N}/${C} references
// resolved from a MatchContext at render time.
type TemplateString struct {
	Tmpl       string
	ParamNames []string
}

// NewTemplateString parses tmpl, recording every referenced name so callers
// can introspect a template's dependencies without rendering it.
func NewTemplateString(tmpl string) *TemplateString {
	var names []string
	for _, m := range templateVarsRE.FindAllStringSubmatch(tmpl, -1) {
		names = append(names, m[1])
	}
	return &TemplateString{Tmpl: tmpl, ParamNames: names}
}

// Render substitutes every ${...} reference from ctx. Unresolved references
// expand to the empty string, per spec §3.
func (t *TemplateString) Render(ctx *MatchContext) string {
	return templateVarsRE.ReplaceAllStringFunc(t.Tmpl, func(m string) string {
		sub := templateVarsRE.FindStringSubmatch(m)
		return ctx.Get(sub[1])
	})
}
