// Package pathutil splits and joins the slash-separated path expressions
// accepted by the directory tree.
package pathutil

import "strings"

// Separator divides path components.
const Separator = "/"

// Parent is the component that resolves to the containing directory.
const Parent = ".."

// Current is the component that resolves to the directory itself.
const Current = "."

// Split breaks a path expression into its components. Empty components
// produced by leading, trailing or repeated separators are dropped, so
// "a//b/" and "/a/b" both yield ["a", "b"]. The "." and ".." components are
// kept for the resolver to interpret.
func Split(expr string) []string {
	raw := strings.Split(expr, Separator)
	components := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		components = append(components, c)
	}
	return components
}

// Join builds an absolute display path from components, root first.
// Returns "/" when there are no components.
func Join(components ...string) string {
	if len(components) == 0 {
		return Separator
	}
	return Separator + strings.Join(components, Separator)
}

// Normalize converts an io/fs style name ("." for the root, no leading
// slash) into a path expression for the resolver.
func Normalize(name string) string {
	if name == "" || name == Current {
		return ""
	}
	return strings.Trim(name, Separator)
}
