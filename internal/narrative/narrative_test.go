package narrative

import "testing"

func TestNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuilder(t *testing.T) {
	var b Builder
	b.Line("获得灵石 %d", 1500).Blank().Append("修为精进")

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	want := "获得灵石 1,500\n\n修为精进"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	lines := b.Lines()
	lines[0] = "changed"
	if b.Lines()[0] == "changed" {
		t.Error("Lines() should return a copy")
	}
}
