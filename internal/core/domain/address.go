// Package domain defines the core domain models for CacheMesh.
package domain

// Address is the opaque identity of a cluster member.
//
// Equality is total. Ordering is supplied externally (by the transport's
// member view) and is stable within a single topology.
type Address string

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a)
}

// ContainsAddress reports whether list contains addr.
func ContainsAddress(list []Address, addr Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

// ContainsAllAddresses reports whether super contains every address in sub.
func ContainsAllAddresses(super, sub []Address) bool {
	for _, a := range sub {
		if !ContainsAddress(super, a) {
			return false
		}
	}
	return true
}

// IntersectAddresses returns the members of a that are also in b,
// preserving a's order. The result is a fresh slice.
func IntersectAddresses(a, b []Address) []Address {
	out := make([]Address, 0, len(a))
	for _, addr := range a {
		if ContainsAddress(b, addr) {
			out = append(out, addr)
		}
	}
	return out
}

// SubtractAddresses returns the members of a that are not in b,
// preserving a's order. The result is a fresh slice.
func SubtractAddresses(a, b []Address) []Address {
	out := make([]Address, 0, len(a))
	for _, addr := range a {
		if !ContainsAddress(b, addr) {
			out = append(out, addr)
		}
	}
	return out
}

// UnionAddresses returns a followed by the members of b not already in a.
// The result is a fresh slice with duplicates removed.
func UnionAddresses(a, b []Address) []Address {
	out := make([]Address, 0, len(a)+len(b))
	for _, addr := range a {
		if !ContainsAddress(out, addr) {
			out = append(out, addr)
		}
	}
	for _, addr := range b {
		if !ContainsAddress(out, addr) {
			out = append(out, addr)
		}
	}
	return out
}

// EqualAddresses reports whether a and b hold the same addresses in the
// same order.
func EqualAddresses(a, b []Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneAddresses returns a fresh copy of list.
func CloneAddresses(list []Address) []Address {
	out := make([]Address, len(list))
	copy(out, list)
	return out
}

// AddressStrings converts a list of addresses to plain strings.
func AddressStrings(list []Address) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = string(a)
	}
	return out
}
