package opt

import "testing"

func TestNameInternerReturnsStableValues(t *testing.T) {
	ni := NewNameInterner()
	a := ni.Intern("region")
	b := ni.Intern("region")
	c := ni.Intern("amount")

	if a != b {
		t.Fatalf("expected interning the same string twice to return equal Names")
	}
	if a == c {
		t.Fatalf("expected different strings to intern to different Names")
	}
	if a.String() != "region" {
		t.Fatalf("expected String() to round-trip, got %q", a.String())
	}
}

func TestPathInternerRootIsEmpty(t *testing.T) {
	pi := NewPathInterner()
	root := pi.Root()
	if len(root.Steps) != 0 {
		t.Fatalf("expected the root path to have no steps")
	}
	if root.String() != "<root>" {
		t.Fatalf("expected root path to stringify as <root>, got %q", root.String())
	}
}

func TestPathInternerExtendIsStableAndPrefixed(t *testing.T) {
	pi := NewPathInterner()
	names := NewNameInterner()

	region := pi.Extend(pi.Root(), Step{Kind: FieldStep, FieldName: names.Intern("region"), FieldIndex: 0})
	regionAgain := pi.Extend(pi.Root(), Step{Kind: FieldStep, FieldName: names.Intern("region"), FieldIndex: 0})
	if region.ID != regionAgain.ID {
		t.Fatalf("expected extending with identical steps to intern to the same PathID")
	}

	nested := pi.Extend(region, Step{Kind: SubscriptStep, Key: "k"})
	if !region.IsPrefixOf(nested) {
		t.Fatalf("expected region to be a prefix of its own extension")
	}
	if nested.IsPrefixOf(region) {
		t.Fatalf("expected the longer path to not be a prefix of the shorter one")
	}
}

func TestPathInternerDistinguishesWildcardFromLiteralKey(t *testing.T) {
	pi := NewPathInterner()
	wildcard := pi.Extend(pi.Root(), Step{Kind: SubscriptStep, AllKeys: true})
	literal := pi.Extend(pi.Root(), Step{Kind: SubscriptStep, Key: "a"})
	if wildcard.ID == literal.ID {
		t.Fatalf("expected a wildcard subscript and a literal-keyed subscript to intern separately")
	}
}
