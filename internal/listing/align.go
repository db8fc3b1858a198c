package listing

// longest returns the largest of lens. Page-wide columns are padded to it.
func longest(lens ...int) int {
	n := 0
	for _, l := range lens {
		if l > n {
			n = l
		}
	}
	return n
}

// at returns col[i], or nil when col is shorter than i+1.
func at[T any](col []*T, i int) *T {
	if i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}
