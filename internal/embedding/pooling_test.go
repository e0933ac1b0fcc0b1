package embedding

import (
	"math"
	"testing"
)

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2, // <s>
		3, 6, // word
		100, 100, // <pad>
	}
	tests := []struct {
		name string
		mask []int64
		want []float32
	}{
		{"ignores padding", []int64{1, 1, 0}, []float32{2, 4}},
		{"single token", []int64{0, 1, 0}, []float32{3, 6}},
		{"nothing attended", []int64{0, 0, 0}, []float32{0, 0}},
		{"mask longer than output", []int64{1, 1, 0, 1}, []float32{2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := meanPool(hidden, tt.mask, 2)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestMeanPool_PaddingLengthDoesNotChangeResult(t *testing.T) {
	const dims = 3
	tok := HashTokenizer{}
	_, shortMask := tok.Tokenize("ঢাকা নদী", 6)
	_, longMask := tok.Tokenize("ঢাকা নদী", 12)

	hiddenFor := func(n int) []float32 {
		h := make([]float32, 0, n*dims)
		for i := 0; i < n; i++ {
			h = append(h, float32(i), float32(2*i), 1)
		}
		return h
	}
	a := meanPool(hiddenFor(6), shortMask, dims)
	b := meanPool(hiddenFor(12), longMask, dims)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pooled vectors differ with padding: %v vs %v", a, b)
		}
	}
}
