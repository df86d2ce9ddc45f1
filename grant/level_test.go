package grant

import "testing"

func TestLevelImplies(t *testing.T) {
	tests := []struct {
		held Level
		want map[Level]bool
	}{
		{LevelView, map[Level]bool{LevelView: true, LevelEdit: false, LevelDelete: false}},
		{LevelEdit, map[Level]bool{LevelView: true, LevelEdit: true, LevelDelete: false}},
		{LevelDelete, map[Level]bool{LevelView: true, LevelEdit: true, LevelDelete: true}},
	}

	for _, tt := range tests {
		for req, want := range tt.want {
			if got := tt.held.Implies(req); got != want {
				t.Errorf("%s.Implies(%s) = %v, want %v", tt.held, req, got, want)
			}
		}
	}
}

func TestLevelImpliesMonotonic(t *testing.T) {
	// delete => edit => view, for every level that implies delete.
	for _, l := range []Level{LevelView, LevelEdit, LevelDelete} {
		if l.Implies(LevelDelete) && !l.Implies(LevelEdit) {
			t.Errorf("%s implies delete but not edit", l)
		}
		if l.Implies(LevelEdit) && !l.Implies(LevelView) {
			t.Errorf("%s implies edit but not view", l)
		}
	}
}

func TestLevelImpliesInvalid(t *testing.T) {
	if Level("admin").Implies(LevelView) {
		t.Error("unknown level should imply nothing")
	}
	if LevelDelete.Implies(Level("admin")) {
		t.Error("no level should imply an unknown level")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"view", "edit", "delete"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", s, err)
		}
		if string(l) != s {
			t.Errorf("ParseLevel(%q) = %q", s, l)
		}
	}

	for _, s := range []string{"", "View", "owner", "all"} {
		if _, err := ParseLevel(s); err == nil {
			t.Errorf("ParseLevel(%q) should fail", s)
		}
	}
}
