package domain

import "testing"

func TestContainsAddress(t *testing.T) {
	list := []Address{"a", "b", "c"}

	if !ContainsAddress(list, "b") {
		t.Error("ContainsAddress(list, b) = false, want true")
	}
	if ContainsAddress(list, "z") {
		t.Error("ContainsAddress(list, z) = true, want false")
	}
	if ContainsAddress(nil, "a") {
		t.Error("ContainsAddress(nil, a) = true, want false")
	}
}

func TestContainsAllAddresses(t *testing.T) {
	super := []Address{"a", "b", "c"}

	if !ContainsAllAddresses(super, []Address{"c", "a"}) {
		t.Error("subset not recognized")
	}
	if ContainsAllAddresses(super, []Address{"a", "z"}) {
		t.Error("non-subset reported as contained")
	}
	if !ContainsAllAddresses(super, nil) {
		t.Error("empty set must always be contained")
	}
}

func TestIntersectAddresses(t *testing.T) {
	a := []Address{"a", "b", "c", "d"}
	b := []Address{"d", "b", "x"}

	got := IntersectAddresses(a, b)
	want := []Address{"b", "d"}
	if !EqualAddresses(got, want) {
		t.Errorf("IntersectAddresses = %v, want %v (a's order preserved)", got, want)
	}
}

func TestSubtractAddresses(t *testing.T) {
	a := []Address{"a", "b", "c"}
	b := []Address{"b"}

	got := SubtractAddresses(a, b)
	want := []Address{"a", "c"}
	if !EqualAddresses(got, want) {
		t.Errorf("SubtractAddresses = %v, want %v", got, want)
	}
}

func TestUnionAddresses(t *testing.T) {
	a := []Address{"a", "b"}
	b := []Address{"b", "c"}

	got := UnionAddresses(a, b)
	want := []Address{"a", "b", "c"}
	if !EqualAddresses(got, want) {
		t.Errorf("UnionAddresses = %v, want %v", got, want)
	}

	// Duplicates within one input are collapsed
	got = UnionAddresses([]Address{"a", "a"}, nil)
	if !EqualAddresses(got, []Address{"a"}) {
		t.Errorf("UnionAddresses with duplicates = %v, want [a]", got)
	}
}

func TestCloneAddressesIsFresh(t *testing.T) {
	orig := []Address{"a", "b"}
	clone := CloneAddresses(orig)

	clone[0] = "z"
	if orig[0] != "a" {
		t.Error("CloneAddresses shares backing storage with its input")
	}
}
