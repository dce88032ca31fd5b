// Package pkgid implements the package identifier: the four-tuple
// `name;version;arch;data` that uniquely names a package instance on the
// wire (§3.1, §4.1).
package pkgid

import (
	"fmt"
	"strings"
)

// ID is a parsed package identifier. Parse rejects an empty Name;
// Version, Architecture and Data may be empty.
type ID struct {
	Name         string
	Version      string
	Architecture string
	Data         string
}

// Parse splits a canonical `name;version;arch;data` string into an ID.
// It requires exactly four ';'-delimited components and a non-empty
// name; Version, Architecture and Data may otherwise be empty.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return ID{}, fmt.Errorf("pkgid: %q does not have exactly three ';' separators", s)
	}
	if parts[0] == "" {
		return ID{}, fmt.Errorf("pkgid: %q has an empty name", s)
	}
	return ID{
		Name:         parts[0],
		Version:      parts[1],
		Architecture: parts[2],
		Data:         parts[3],
	}, nil
}

// String renders id back to its canonical `name;version;arch;data` form.
// Empty components are preserved as empty fields.
func (id ID) String() string {
	return strings.Join([]string{id.Name, id.Version, id.Architecture, id.Data}, ";")
}

// Equal is full component-wise equality.
func (id ID) Equal(other ID) bool {
	return id.Name == other.Name &&
		id.Version == other.Version &&
		id.Architecture == other.Architecture &&
		id.Data == other.Data
}

// EqualFuzzyArch is equality ignoring Architecture: name, version and
// data must match.
func (id ID) EqualFuzzyArch(other ID) bool {
	return id.Name == other.Name &&
		id.Version == other.Version &&
		id.Data == other.Data
}

// ParseList parses a slice of wire strings into IDs, rejecting the whole
// list if any element fails to parse (§4.5 validation: "every element
// parses; empty list is rejected").
func ParseList(ss []string) ([]ID, error) {
	if len(ss) == 0 {
		return nil, fmt.Errorf("pkgid: package-id list must not be empty")
	}
	out := make([]ID, 0, len(ss))
	for _, s := range ss {
		id, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
