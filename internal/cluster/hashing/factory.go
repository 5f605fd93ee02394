// Package hashing provides the default consistent-hash factory.
package hashing

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

const (
	// MurmurHash3 is the hash function this factory places segments with.
	MurmurHash3 = "murmur3"

	// DefaultVirtualNodeCount is the number of virtual ring positions per
	// physical member.
	DefaultVirtualNodeCount = 64
)

// Factory implements domain.ConsistentHashFactory on a murmur3 ring.
type Factory struct {
	virtualNodes int
}

// NewFactory creates a Factory with the default virtual node count.
func NewFactory() *Factory {
	return &Factory{virtualNodes: DefaultVirtualNodeCount}
}

// Create implements domain.ConsistentHashFactory.
func (f *Factory) Create(hashFn string, numOwners, numSegments int, members []domain.Address) (domain.ConsistentHash, error) {
	if hashFn != "" && hashFn != MurmurHash3 {
		return nil, fmt.Errorf("hashing: unsupported hash function %q", hashFn)
	}
	if numOwners < 1 {
		return nil, fmt.Errorf("hashing: numOwners must be at least 1, got %d", numOwners)
	}
	if numSegments < 1 {
		return nil, fmt.Errorf("hashing: numSegments must be at least 1, got %d", numSegments)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("hashing: cannot create a hash without members")
	}
	if err := checkUnique(members); err != nil {
		return nil, err
	}

	ring := f.buildRing(members)
	count := numOwners
	if len(members) < count {
		count = len(members)
	}

	owners := make([][]domain.Address, numSegments)
	for s := 0; s < numSegments; s++ {
		owners[s] = ownersFromRing(ring, s, count)
	}

	return &segmentCH{
		numOwners:   numOwners,
		numSegments: numSegments,
		members:     domain.CloneAddresses(members),
		owners:      owners,
	}, nil
}

// UpdateMembers implements domain.ConsistentHashFactory.
//
// Prior ownership is retained where the owner survives. Members new to the
// hash become members without ownership (a following rebalance assigns
// them segments); a segment that loses all its owners is re-seeded
// deterministically from the ring over the new member set.
func (f *Factory) UpdateMembers(ch domain.ConsistentHash, newMembers []domain.Address) (domain.ConsistentHash, error) {
	c, err := asSegmentCH(ch)
	if err != nil {
		return nil, err
	}
	if len(newMembers) == 0 {
		return nil, fmt.Errorf("hashing: cannot update to an empty member set")
	}
	if err := checkUnique(newMembers); err != nil {
		return nil, err
	}

	var ring []ringEntry // built lazily; most shrinks never orphan a segment
	owners := make([][]domain.Address, c.numSegments)
	for s := 0; s < c.numSegments; s++ {
		kept := domain.IntersectAddresses(c.owners[s], newMembers)
		if len(kept) == 0 {
			if ring == nil {
				ring = f.buildRing(newMembers)
			}
			kept = ownersFromRing(ring, s, 1)
		}
		owners[s] = kept
	}

	return &segmentCH{
		numOwners:   c.numOwners,
		numSegments: c.numSegments,
		members:     domain.CloneAddresses(newMembers),
		owners:      owners,
	}, nil
}

// Union implements domain.ConsistentHashFactory.
func (f *Factory) Union(a, b domain.ConsistentHash) (domain.ConsistentHash, error) {
	ca, err := asSegmentCH(a)
	if err != nil {
		return nil, err
	}
	cb, err := asSegmentCH(b)
	if err != nil {
		return nil, err
	}
	if ca.numSegments != cb.numSegments {
		return nil, fmt.Errorf("hashing: segment count mismatch: %d vs %d", ca.numSegments, cb.numSegments)
	}
	if ca.numOwners != cb.numOwners {
		return nil, fmt.Errorf("hashing: owner count mismatch: %d vs %d", ca.numOwners, cb.numOwners)
	}

	owners := make([][]domain.Address, ca.numSegments)
	for s := 0; s < ca.numSegments; s++ {
		owners[s] = domain.UnionAddresses(ca.owners[s], cb.owners[s])
	}

	return &segmentCH{
		numOwners:   ca.numOwners,
		numSegments: ca.numSegments,
		members:     domain.UnionAddresses(ca.members, cb.members),
		owners:      owners,
	}, nil
}

// Rebalance implements domain.ConsistentHashFactory.
//
// Existing owners are retained first (capped at the target count); deficits
// are filled from the least-loaded members with ties broken by member order.
// Running it on an already balanced hash reproduces the same assignment.
func (f *Factory) Rebalance(ch domain.ConsistentHash) (domain.ConsistentHash, error) {
	c, err := asSegmentCH(ch)
	if err != nil {
		return nil, err
	}

	count := c.numOwners
	if len(c.members) < count {
		count = len(c.members)
	}

	owners := make([][]domain.Address, c.numSegments)
	loads := make(map[domain.Address]int, len(c.members))
	for s := 0; s < c.numSegments; s++ {
		kept := domain.IntersectAddresses(c.owners[s], c.members)
		if len(kept) > count {
			kept = domain.CloneAddresses(kept[:count])
		}
		owners[s] = kept
		for _, m := range kept {
			loads[m]++
		}
	}

	for s := 0; s < c.numSegments; s++ {
		for len(owners[s]) < count {
			pick := f.leastLoaded(c.members, owners[s], loads)
			owners[s] = append(owners[s], pick)
			loads[pick]++
		}
	}

	return &segmentCH{
		numOwners:   c.numOwners,
		numSegments: c.numSegments,
		members:     domain.CloneAddresses(c.members),
		owners:      owners,
	}, nil
}

// leastLoaded picks the member with the fewest owned segments that is not
// already an owner of the segment, ties broken by member order.
func (f *Factory) leastLoaded(members, exclude []domain.Address, loads map[domain.Address]int) domain.Address {
	var best domain.Address
	bestLoad := -1
	for _, m := range members {
		if domain.ContainsAddress(exclude, m) {
			continue
		}
		if bestLoad == -1 || loads[m] < bestLoad {
			best = m
			bestLoad = loads[m]
		}
	}
	return best
}

// ringEntry is one virtual node position on the hash ring.
type ringEntry struct {
	hash   uint64
	member domain.Address
}

// buildRing computes the sorted virtual node positions for members.
func (f *Factory) buildRing(members []domain.Address) []ringEntry {
	ring := make([]ringEntry, 0, len(members)*f.virtualNodes)
	for _, m := range members {
		for i := 0; i < f.virtualNodes; i++ {
			ring = append(ring, ringEntry{hash: virtualNodeHash(m, i), member: m})
		}
	}
	sort.Slice(ring, func(i, j int) bool {
		if ring[i].hash != ring[j].hash {
			return ring[i].hash < ring[j].hash
		}
		return ring[i].member < ring[j].member
	})
	return ring
}

// ownersFromRing walks the ring clockwise from the segment's position and
// collects the first count distinct members.
func ownersFromRing(ring []ringEntry, segment, count int) []domain.Address {
	target := segmentHash(segment)
	start := sort.Search(len(ring), func(i int) bool {
		return ring[i].hash >= target
	})

	owners := make([]domain.Address, 0, count)
	for i := 0; i < len(ring) && len(owners) < count; i++ {
		entry := ring[(start+i)%len(ring)]
		if !domain.ContainsAddress(owners, entry.member) {
			owners = append(owners, entry.member)
		}
	}
	return owners
}

// virtualNodeHash computes the ring position of a member's virtual node.
func virtualNodeHash(member domain.Address, index int) uint64 {
	h := murmur3.New64()
	h.Write([]byte(member))

	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))
	h.Write(idx[:])

	return h.Sum64()
}

// segmentHash computes the ring position a segment is placed at.
func segmentHash(segment int) uint64 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(segment))
	return murmur3.Sum64(b[:])
}

// asSegmentCH narrows a domain.ConsistentHash to this factory's value type.
func asSegmentCH(ch domain.ConsistentHash) (*segmentCH, error) {
	if ch == nil {
		return nil, fmt.Errorf("hashing: nil consistent hash")
	}
	c, ok := ch.(*segmentCH)
	if !ok {
		return nil, fmt.Errorf("hashing: foreign consistent hash type %T", ch)
	}
	return c, nil
}

// checkUnique rejects duplicate addresses.
func checkUnique(members []domain.Address) error {
	seen := make(map[domain.Address]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("hashing: duplicate member %s", m)
		}
		seen[m] = struct{}{}
	}
	return nil
}
