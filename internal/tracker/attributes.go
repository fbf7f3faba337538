package tracker

// DefaultIgnoredAttributes are bookkeeping columns excluded from tracking
// unless a registry is built with WithIgnoredAttributes.
var DefaultIgnoredAttributes = []string{"created_at", "updated_at"}

// TrackableAttributes returns the attributes eligible to appear in a diff.
//
// A non-empty only list wins outright and is returned in declared order; its
// names are not checked against allColumns, so unknown names are inert.
// Otherwise the result is allColumns, in column order, minus except and
// ignored.
func TrackableAttributes(allColumns, only, except, ignored []string) []string {
	if len(only) > 0 {
		return uniqueStrings(only)
	}

	skip := make(map[string]struct{}, len(except)+len(ignored))
	for _, name := range except {
		skip[name] = struct{}{}
	}
	for _, name := range ignored {
		skip[name] = struct{}{}
	}

	tracked := make([]string, 0, len(allColumns))
	for _, column := range uniqueStrings(allColumns) {
		if _, excluded := skip[column]; !excluded {
			tracked = append(tracked, column)
		}
	}
	return tracked
}

// nonTrackedAttributes returns the columns of allColumns missing from tracked.
func nonTrackedAttributes(allColumns, tracked []string) []string {
	keep := make(map[string]struct{}, len(tracked))
	for _, name := range tracked {
		keep[name] = struct{}{}
	}

	var rest []string
	for _, column := range uniqueStrings(allColumns) {
		if _, ok := keep[column]; !ok {
			rest = append(rest, column)
		}
	}
	return rest
}

// uniqueStrings drops repeated names, keeping first occurrences in order.
func uniqueStrings(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
