package main

import "strings"

// legacyFlags maps the single-dash multi-letter flags of the original
// tooling onto their long forms.
var legacyFlags = map[string]string{
	"-d":  "--dataset",
	"-q":  "--query",
	"-od": "--output-dataset",
	"-oq": "--output-query",
}

// normalizeArgs rewrites legacy flags so cobra can parse them. Arguments
// after a "--" terminator are left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(a, "=")
		if long, ok := legacyFlags[name]; ok {
			a = long
			if hasValue {
				a += "=" + value
			}
		}
		out = append(out, a)
	}
	return out
}
