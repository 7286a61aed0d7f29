package search

// Fuse merges ranked candidate lists into one deduplicated candidate set.
// Lists are concatenated in the order given and deduplicated by record ID;
// the first occurrence wins and later occurrences are dropped along with
// their source scores, which are meaningless across strategies anyway. The
// output preserves first-seen order. That order is not a ranking signal, but
// it must be deterministic because the reranker uses it to break score ties.
func Fuse(lists ...[]RankedCandidate) []FusedCandidate {
	total := 0
	for _, list := range lists {
		total += len(list)
	}
	if total == 0 {
		return nil
	}

	seen := make(map[int]struct{}, total)
	fused := make([]FusedCandidate, 0, total)

	for _, list := range lists {
		for _, c := range list {
			if _, dup := seen[c.Record.ID]; dup {
				continue
			}
			seen[c.Record.ID] = struct{}{}
			fused = append(fused, FusedCandidate{Record: c.Record})
		}
	}

	return fused
}
