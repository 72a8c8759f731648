// Package symbol interns the journal's repeated textual values (URIs,
// ontology terms, actors, mimetypes, display texts, storage identifiers and
// tags) as small integer ids, mirroring each persistent lookup table in
// memory.
package symbol

import "fmt"

// Kind names one symbol table. The set is closed.
type Kind int

const (
	URI Kind = iota
	Interpretation
	Manifestation
	Actor
	Mimetype
	Text
	Storage
	Tag

	numKinds
)

var kindTables = [numKinds]string{
	URI:            "uri",
	Interpretation: "interpretation",
	Manifestation:  "manifestation",
	Actor:          "actor",
	Mimetype:       "mimetype",
	Text:           "text",
	Storage:        "storage",
	Tag:            "tag",
}

// Kinds returns every symbol kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Table returns the name of the SQL table backing k.
func (k Kind) Table() string {
	if !k.valid() {
		panic(fmt.Sprintf("symbol: invalid kind %d", int(k)))
	}
	return kindTables[k]
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTables[k]
}

func (k Kind) valid() bool {
	return k >= 0 && k < numKinds
}

// ParseKind maps a table name back to its kind.
func ParseKind(name string) (Kind, error) {
	for i, t := range kindTables {
		if t == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbol kind %q", name)
}
