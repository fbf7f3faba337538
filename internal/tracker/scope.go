package tracker

import (
	"strings"
	"unicode"
)

// DefaultScope derives a scope from an entity type name: the last segment
// after ".", "/" or "::", converted to lower snake case.
//
//	"BlogPost"           -> "blog_post"
//	"models.BlogPost"    -> "blog_post"
//	"Admin::HTTPRequest" -> "http_request"
func DefaultScope(typeName string) string {
	name := typeName
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		name = name[i+1:]
	}
	return underscore(name)
}

func underscore(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if r == '-' || r == ' ' {
			b.WriteByte('_')
			continue
		}
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// "PostBody" splits before B; "HTTPRequest" splits before R only.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
