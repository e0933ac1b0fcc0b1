package qa

// ContainsBengali reports whether s has at least one rune in the Bengali block (U+0980–U+09FF).
func ContainsBengali(s string) bool {
	for _, r := range s {
		if r >= 0x0980 && r <= 0x09FF {
			return true
		}
	}
	return false
}
