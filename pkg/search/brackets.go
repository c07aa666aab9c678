package search

// CheckBracket scans symbols for brackets without a partner and appends their
// indexes to missing, returning the extended slice.
//
// With open set, the scan runs from the end toward the start and every "(" looks
// forward for an unconsumed ")". Otherwise the scan runs from the start and every
// ")" looks backward for an unconsumed "(". A partner is consumed once found.
// Indexes are appended in discovery order. Call it in both directions to collect
// every mismatch.
func CheckBracket(symbols []string, missing []int, open bool) []int {
	first, last := CloseBracket, OpenBracket
	if open {
		first, last = OpenBracket, CloseBracket
	}
	consumed := make(map[int]bool)
	partner := func(index int) bool {
		step := -1
		if open {
			step = 1
		}
		for j := index + step; j >= 0 && j < len(symbols); j += step {
			if symbols[j] == last && !consumed[j] {
				consumed[j] = true
				return true
			}
		}
		return false
	}

	if open {
		for i := len(symbols) - 1; i >= 0; i-- {
			if symbols[i] == first && !partner(i) {
				missing = append(missing, i)
			}
		}
		return missing
	}
	for i := 0; i < len(symbols); i++ {
		if symbols[i] == first && !partner(i) {
			missing = append(missing, i)
		}
	}
	return missing
}

// MismatchedBrackets runs CheckBracket in both directions over the comparisons of
// matchers. Non-bracket clauses are never reported.
func MismatchedBrackets(matchers []Matcher) []int {
	symbols := make([]string, len(matchers))
	for i, m := range matchers {
		symbols[i] = m.Comparison
	}
	var missing []int
	missing = CheckBracket(symbols, missing, true)
	missing = CheckBracket(symbols, missing, false)
	return missing
}
