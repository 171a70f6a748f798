package tui

import "testing"

func TestFocusCycleClosure(t *testing.T) {
	start := FocusList
	seen := map[Focus]bool{start: true}
	f := start
	for i := 0; i < 3; i++ {
		f = f.Next()
		if seen[f] {
			t.Fatalf("cycle revisited %v after %d steps", f, i+1)
		}
		seen[f] = true
	}
	if f.Next() != start {
		t.Errorf("cycle did not close: %v.Next() = %v, want %v", f, f.Next(), start)
	}
}

func TestFocusCycleOrder(t *testing.T) {
	tests := []struct {
		from, to Focus
	}{
		{FocusList, FocusChat},
		{FocusChat, FocusInput},
		{FocusInput, FocusModelSelect},
		{FocusModelSelect, FocusList},
	}
	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.to {
			t.Errorf("%v.Next() = %v, want %v", tt.from, got, tt.to)
		}
	}
}
