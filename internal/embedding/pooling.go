package embedding

// meanPool averages the token rows of hidden (tokens x dims, row-major) over the positions
// the attention mask marks as real tokens, which is how all-mpnet-base-v2 builds its
// sentence embedding. Padding rows never contribute. An empty mask yields a zero vector.
func meanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	if dims <= 0 {
		return out
	}
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		end := (t + 1) * dims
		if end > len(hidden) {
			break
		}
		for i, v := range hidden[t*dims : end] {
			out[i] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}
