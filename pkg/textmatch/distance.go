package textmatch

// Distance returns the Levenshtein distance between a and b, counted in runes.
// Comparison is case-sensitive; callers fold case themselves.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rolling rows of the DP table.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Closest returns the candidate with the smallest distance to target and that distance.
// Ties keep the earliest candidate. It returns -1 and an empty string when candidates is empty.
func Closest(target string, candidates []string) (string, int) {
	best := -1
	bestKey := ""
	for _, c := range candidates {
		d := Distance(target, c)
		if best < 0 || d < best {
			best = d
			bestKey = c
		}
	}
	return bestKey, best
}
