package state

import "fmt"

// Kind identifies one of the application's logical windows. The set is
// closed and known at compile time; adding a window means adding a
// constant here and a default config section.
type Kind string

const (
	// KindMain is the primary application window.
	KindMain Kind = "main"
	// KindFloating is the small always-available companion window.
	KindFloating Kind = "floating"
)

// Kinds returns all known window kinds in stable order.
func Kinds() []Kind {
	return []Kind{KindMain, KindFloating}
}

// ParseKind converts a string to a Kind, rejecting unknown names.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown window kind: %q", s)
	}
	return k, nil
}

// Valid reports whether k names a known window kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMain, KindFloating:
		return true
	}
	return false
}

// Floating reports whether visibility and always-on-top state are
// meaningful for this kind.
func (k Kind) Floating() bool {
	return k == KindFloating
}

func (k Kind) String() string {
	return string(k)
}
