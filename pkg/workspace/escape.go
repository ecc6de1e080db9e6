package workspace

import "strings"

// Escape replaces the characters that are reserved in server paths with
// their escape sequences. `%` is replaced first so that the sequences added
// for the other characters aren't escaped again.
func Escape(path string) string {
	path = strings.ReplaceAll(path, "%", "%25")
	path = strings.ReplaceAll(path, "*", "%2A")
	path = strings.ReplaceAll(path, "#", "%23")
	return strings.ReplaceAll(path, "@", "%40")
}

// Unescape reverses Escape. `%25` is replaced last so that a literal `%`
// followed by an escape code isn't unescaped twice.
func Unescape(path string) string {
	path = strings.ReplaceAll(path, "%40", "@")
	path = strings.ReplaceAll(path, "%23", "#")
	path = strings.ReplaceAll(path, "%2A", "*")
	return strings.ReplaceAll(path, "%25", "%")
}
