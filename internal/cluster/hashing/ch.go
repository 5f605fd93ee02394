// Package hashing provides segment consistent-hash values.
package hashing

import (
	"fmt"
	"strings"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// segmentCH is the immutable consistent-hash value produced by Factory.
//
// It stores the full segment→owners table; all derived assignments are
// fresh instances.
type segmentCH struct {
	numOwners   int
	numSegments int
	members     []domain.Address
	owners      [][]domain.Address
}

// NumSegments implements domain.ConsistentHash.
func (c *segmentCH) NumSegments() int { return c.numSegments }

// NumOwners implements domain.ConsistentHash.
func (c *segmentCH) NumOwners() int { return c.numOwners }

// Members implements domain.ConsistentHash. The returned slice must not be
// modified.
func (c *segmentCH) Members() []domain.Address { return c.members }

// Owners implements domain.ConsistentHash.
func (c *segmentCH) Owners(segment int) []domain.Address {
	if segment < 0 || segment >= c.numSegments {
		return nil
	}
	return c.owners[segment]
}

// Equal implements domain.ConsistentHash.
func (c *segmentCH) Equal(other domain.ConsistentHash) bool {
	o, ok := other.(*segmentCH)
	if !ok {
		return false
	}
	if c.numOwners != o.numOwners || c.numSegments != o.numSegments {
		return false
	}
	if !domain.EqualAddresses(c.members, o.members) {
		return false
	}
	for s := 0; s < c.numSegments; s++ {
		if !domain.EqualAddresses(c.owners[s], o.owners[s]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer for log output.
func (c *segmentCH) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CH{owners=%d segments=%d members=%v}", c.numOwners, c.numSegments, c.members)
	return b.String()
}
