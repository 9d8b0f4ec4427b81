package dedup

// TitleSimilarity computes the longest-common-subsequence ratio between two
// normalized titles: 2*LCS / (len(a)+len(b)), over runes. Equal strings score
// 1, strings with no common subsequence score 0.
func TitleSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra := []rune(a)
	rb := []rune(b)
	lcs := lcsLength(ra, rb)
	return float64(2*lcs) / float64(len(ra)+len(rb))
}

// lcsLength is the classic two-row dynamic program. It runs inside the
// pairwise clustering loop, so it keeps allocations to the two rows.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
