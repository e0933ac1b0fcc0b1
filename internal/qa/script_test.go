package qa

import "testing"

func TestContainsBengali(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ঢাকা", true},
		{"The capital is ঢাকা", true},
		{"১২৩", true},
		{"।", false}, // danda is in the Devanagari block
		{"Dhaka", false},
		{"", false},
		{"नमस्ते", false},
		{"\u0980", true},
		{"\u09ff", true},
		{"\u0a00", false},
	}
	for _, tt := range tests {
		if got := ContainsBengali(tt.in); got != tt.want {
			t.Errorf("ContainsBengali(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
