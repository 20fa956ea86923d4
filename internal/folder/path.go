package folder

import "strings"

// Separator delimits folder path segments.
const Separator = "/"

// Clean trims surrounding whitespace and slashes and collapses empty segments,
// so " Lights//Interior/ " becomes "Lights/Interior".
func Clean(path string) string {
	parts := strings.Split(strings.TrimSpace(path), Separator)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, Separator)
}

// Parent returns the parent path, or "" for a top-level folder.
func Parent(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Leaf returns the last segment of path.
func Leaf(path string) string {
	return path[strings.LastIndex(path, Separator)+1:]
}

// Join appends leaf to parent; an empty parent means the root.
func Join(parent, leaf string) string {
	if parent == "" {
		return leaf
	}
	if leaf == "" {
		return parent
	}
	return parent + Separator + leaf
}

// IsDescendant reports whether path lies strictly under ancestor.
func IsDescendant(path, ancestor string) bool {
	if ancestor == "" {
		return path != ""
	}
	return strings.HasPrefix(path, ancestor+Separator)
}

// IsSelfOrDescendant reports whether path equals ancestor or lies under it.
func IsSelfOrDescendant(path, ancestor string) bool {
	return path == ancestor || IsDescendant(path, ancestor)
}

// Rebase replaces the literal prefix oldRoot of path with newRoot. Paths
// outside oldRoot are returned unchanged with ok=false.
func Rebase(path, oldRoot, newRoot string) (string, bool) {
	if path == oldRoot {
		return newRoot, true
	}
	if !IsDescendant(path, oldRoot) {
		return path, false
	}
	return newRoot + path[len(oldRoot):], true
}

// Depth counts segments; the root has depth 0.
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, Separator) + 1
}

// Ancestors lists path's proper ancestors, shallowest first.
func Ancestors(path string) []string {
	var out []string
	for p := Parent(path); p != ""; p = Parent(p) {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
