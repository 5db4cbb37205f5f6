// Package convention maps component identifiers to CSS class-name prefixes
// according to a casing convention.
package convention

import "unicode"

// Kind selects a naming convention.
type Kind int

const (
	// Identity leaves identifiers unchanged. It is the fallback for
	// unrecognized convention names.
	Identity Kind = iota
	// Dash converts camel case to dashed lower case.
	// i.e.: MyClass -> my-class
	Dash
	// CamelCase converts dashed names to a capitalized word.
	// i.e.: my-class -> Myclass
	CamelCase
	// Underscore converts camel case to underscored lower case.
	// i.e.: MyClass -> my_class
	Underscore
)

// Default is the convention used when none is configured.
const Default = Dash

// String returns the configuration spelling of the convention.
func (k Kind) String() string {
	switch k {
	case Dash:
		return "dash"
	case CamelCase:
		return "camelCase"
	case Underscore:
		return "underscore"
	}
	return "identity"
}

// ParseKind converts a configuration value to a Kind.
// The empty string selects Default. Unrecognized values return Identity and
// false.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "":
		return Default, true
	case "dash":
		return Dash, true
	case "camelCase":
		return CamelCase, true
	case "underscore":
		return Underscore, true
	}
	return Identity, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode to Identity.
func (k *Kind) UnmarshalText(text []byte) error {
	*k, _ = ParseKind(string(text))
	return nil
}

// Transform normalizes name according to the convention.
func (k Kind) Transform(name string) string {
	switch k {
	case Dash:
		return separate(name, '-')
	case CamelCase:
		return capitalize(name)
	case Underscore:
		return separate(name, '_')
	case Identity:
		return name
	}
	return name
}

// separate inserts sep before every uppercase ASCII letter and lowercases
// it, dropping the separator produced by a leading uppercase letter.
func separate(name string, sep byte) string {
	out := make([]byte, 0, len(name)+4)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUpper(c) {
			out = append(out, sep, c+('a'-'A'))
			continue
		}
		out = append(out, c)
	}
	if len(out) > 0 && out[0] == sep && len(name) > 0 && isUpper(name[0]) {
		out = out[1:]
	}
	return string(out)
}

// capitalize joins dashed lowercase segments, then upper-cases the first
// character and lower-cases the rest. The final lowering undoes the joined
// segment capitals: my-class-name -> Myclassname.
func capitalize(name string) string {
	joined := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' && i+1 < len(name) && isLower(name[i+1]) {
			joined = append(joined, name[i+1]-('a'-'A'))
			i++
			continue
		}
		joined = append(joined, c)
	}

	runes := []rune(string(joined))
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
