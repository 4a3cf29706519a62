package canopy

import "testing"

func TestHierarchy_PathOfRoot(t *testing.T) {
	h := NewHierarchy().Root("device", nil)

	path, err := h.PathOf("device")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(path) != 1 || path[0] != "device" {
		t.Fatalf("Expected path [device], got %v", path)
	}
}

func TestHierarchy_PathOfNested(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "device", nil).
		Child("lamp", "on", nil)

	path, err := h.PathOf("lamp")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := []StateType{"device", "on", "lamp"}
	if len(path) != len(expected) {
		t.Fatalf("Expected path %v, got %v", expected, path)
	}
	for i := range expected {
		if path[i] != expected[i] {
			t.Fatalf("Expected path %v, got %v", expected, path)
		}
	}
}

func TestHierarchy_PathOfUndeclared(t *testing.T) {
	h := NewHierarchy().Root("device", nil)

	_, err := h.PathOf("ghost")
	AssertErrorCode(t, err, ErrCodeStateNotDeclared)
}

func TestHierarchy_ParentOf(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "device", nil)

	parent, ok := h.ParentOf("on")
	if !ok || parent != "device" {
		t.Fatalf("Expected parent device, got %v (%v)", parent, ok)
	}

	if _, ok := h.ParentOf("device"); ok {
		t.Error("Expected root type to have no parent")
	}
}

func TestHierarchy_ValidateCycle(t *testing.T) {
	h := NewHierarchy().
		Child("a", "b", nil).
		Child("b", "a", nil)

	err := h.Validate()
	AssertErrorCode(t, err, ErrCodeCycleDetected)
}

func TestHierarchy_ValidateSelfCycle(t *testing.T) {
	h := NewHierarchy().Child("a", "a", nil)

	err := h.Validate()
	AssertErrorCode(t, err, ErrCodeCycleDetected)
}

func TestHierarchy_ValidateUndeclaredParent(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "nowhere", nil)

	err := h.Validate()
	AssertErrorCode(t, err, ErrCodeCycleDetected)
}

func TestHierarchy_ValidateDuplicateDeclaration(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Root("device", nil)

	err := h.Validate()
	AssertErrorCode(t, err, ErrCodeDuplicateDeclaration)
}

func TestHierarchy_ValidateAcyclic(t *testing.T) {
	log := &hookLog{}
	h := newTestHierarchy(log)

	if err := h.Validate(); err != nil {
		t.Fatalf("Expected no error validating acyclic hierarchy, got: %v", err)
	}
}

func TestHierarchy_IsRoot(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "device", nil)

	if !h.IsRoot("device") {
		t.Error("Expected device to be a root type")
	}
	if h.IsRoot("on") {
		t.Error("Expected on not to be a root type")
	}
	if h.IsRoot("ghost") {
		t.Error("Expected undeclared type not to be a root type")
	}
}

func TestHierarchy_Types(t *testing.T) {
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "device", nil)

	types := h.Types()
	if len(types) != 2 || types[0] != "device" || types[1] != "on" {
		t.Fatalf("Expected [device on], got %v", types)
	}
}

func TestCommonPrefixLen(t *testing.T) {
	tests := []struct {
		name     string
		a        []StateType
		b        []StateType
		expected int
	}{
		{"identical", []StateType{"x", "y"}, []StateType{"x", "y"}, 2},
		{"diverging", []StateType{"x", "y", "z"}, []StateType{"x", "w"}, 1},
		{"disjoint", []StateType{"x"}, []StateType{"y"}, 0},
		{"prefix", []StateType{"x"}, []StateType{"x", "y"}, 1},
		{"stops at first mismatch", []StateType{"x", "y", "z"}, []StateType{"x", "w", "z"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commonPrefixLen(tt.a, tt.b); got != tt.expected {
				t.Errorf("Expected common prefix %d, got %d", tt.expected, got)
			}
		})
	}
}
