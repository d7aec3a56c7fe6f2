package types

import "testing"

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"int/int", New(Int), New(Int), true},
		{"int/float promotes", New(Int), New(Float), true},
		{"int/str", New(Int), New(Str), false},
		{"undeclared never equal itself", New(Undeclared), New(Undeclared), false},
		{"unconstructed never equal", New(Unconstructed), New(Int), false},
		{"optional equals anything", NewOptional(New(Int)), New(Str), true},
		{"optional equals nil", NewOptional(New(Int)), New(Nil), true},
		{"any equals anything", New(Any), New(Str), true},
		{"any equals nil", New(Any), New(Nil), true},
		{"any does not rescue undeclared", New(Any), New(Undeclared), false},
		{"this is not any", New(This), New(Str), false},
		{
			"const wraps transparently",
			Type{Kind: Constant, Elem: ptr(New(Int))},
			New(Int),
			true,
		},
		{
			"array of equal elems",
			NewArray(New(Int)), NewArray(New(Float)),
			true,
		},
		{
			"array of unequal elems",
			NewArray(New(Int)), NewArray(New(Str)),
			false,
		},
		{
			"struct by name",
			NewStruct("Foo", NewMembers()),
			NewStruct("Foo", NewMembers()),
			true,
		},
		{
			"struct name mismatch",
			NewStruct("Foo", NewMembers()),
			NewStruct("Bar", NewMembers()),
			false,
		},
		{
			"tuple elementwise",
			NewTuple(New(Int), New(Str)),
			NewTuple(New(Float), New(Str)),
			true,
		},
		{
			"tuple arity mismatch",
			NewTuple(New(Int)),
			NewTuple(New(Int), New(Int)),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Errorf("Equal(%v, %v) (reversed) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func ptr(t Type) *Type { return &t }

func TestDealias(t *testing.T) {
	inner := New(Int)
	wrapped := Type{Kind: Optional, Elem: ptr(Type{Kind: Constant, Elem: &inner})}
	got := Dealias(wrapped)
	if !Equal(got, New(Int)) {
		t.Errorf("Dealias unwrapped to %v, want int", got)
	}
}

func TestMembersOrderPreserved(t *testing.T) {
	m := NewMembers()
	m.Add("b", New(Int))
	m.Add("a", New(Str))
	m.Add("b", New(Float)) // re-add: overwrites type, keeps position
	want := []string{"b", "a"}
	got := m.Names()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	ty, ok := m.Get("b")
	if !ok || ty.Kind != Float {
		t.Errorf("Get(%q) = %v, %v; want Float, true", "b", ty, ok)
	}
}
