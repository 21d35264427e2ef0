// Package family resolves asset types to their families. A family is the
// stable identity shared by every container, unit, and capability of one
// asset type; the freeze registry and the ledger key their indexes by it.
package family

import (
	"fmt"
	"reflect"
)

// ID identifies an asset family. IDs are comparable and usable as map keys.
// The zero ID identifies nothing.
type ID struct {
	path string
	name string
}

// Of resolves the family of T from its package path and type name. The
// second return is false when T has no resolvable family: predeclared types
// (uint64, string), unnamed composites, and pointer types cannot back an
// asset. Distinct generic instantiations resolve to distinct families.
//
// Asset types must be declared at package scope. Two function-local types
// with the same name would collide on ID.
func Of[T any]() (ID, bool) {
	t := reflect.TypeFor[T]()
	if t.PkgPath() == "" || t.Name() == "" {
		return ID{}, false
	}
	return ID{path: t.PkgPath(), name: t.Name()}, true
}

// MustOf is Of for types statically known to be asset-backed. It panics on
// unresolvable types and is intended for registration paths that already
// validated T.
func MustOf[T any]() ID {
	id, ok := Of[T]()
	if !ok {
		panic(fmt.Sprintf("family: %v has no resolvable asset family", reflect.TypeFor[T]()))
	}
	return id
}

// IsZero reports whether id identifies nothing.
func (id ID) IsZero() bool { return id == ID{} }

// Name returns the bare type name of the family.
func (id ID) Name() string { return id.name }

func (id ID) String() string {
	if id.IsZero() {
		return "<no family>"
	}
	return id.path + "." + id.name
}
