package sparql

import (
	"fmt"
	"strings"
)

const (
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDFloat    = "http://www.w3.org/2001/XMLSchema#float"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// IRI renders s as an IRI reference, refusing characters that would let the
// value escape the angle brackets.
func IRI(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty IRI")
	}
	if !strings.Contains(s, ":") {
		return "", fmt.Errorf("IRI %q is not absolute", s)
	}
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return "", fmt.Errorf("IRI %q contains illegal character %q", s, r)
		}
	}
	return "<" + s + ">", nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Literal renders s as a quoted string literal.
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

func LangLiteral(s, lang string) string {
	return Literal(s) + "@" + lang
}

// TypedLiteral renders s with the given datatype IRI.
func TypedLiteral(s, datatype string) string {
	return Literal(s) + "^^<" + datatype + ">"
}
