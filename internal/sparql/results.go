package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Term is one RDF term of a SPARQL JSON result binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func (t Term) IsIRI() bool {
	return t.Type == "uri"
}

// Lexical returns the lexical form of the term. Some stores serialise typed
// literals as "1^^http://www.w3.org/2001/XMLSchema#int" inside the value.
func (t Term) Lexical() string {
	v := t.Value
	if i := strings.Index(v, "^^"); i >= 0 && t.Type != "uri" {
		v = v[:i]
	}
	return strings.TrimSpace(strings.Trim(v, `"`))
}

func (t Term) Int() (int, error) {
	return ParseInteger(t.Lexical())
}

// ParseInteger reads the lexical form of an xsd:integer. Leading zeros are
// decimal and base prefixes are refused.
func ParseInteger(s string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 0)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(n), nil
}

func (t Term) Float() (float64, error) {
	return cast.ToFloat64E(t.Lexical())
}

type Binding map[string]Term

// Get returns the term bound to name and whether it was bound at all.
func (b Binding) Get(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}

// Value is a shortcut for the raw value of a bound variable, "" if unbound.
func (b Binding) Value(name string) string {
	return b[name].Value
}

type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

func (r *Results) Bindings() []Binding {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}
