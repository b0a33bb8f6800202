package utils

// PadStrings extends items with filler up to n elements.
func PadStrings(items []string, n int, filler string) []string {
	out := make([]string, n)
	copy(out, items)
	for i := len(items); i < n; i++ {
		out[i] = filler
	}
	return out
}
