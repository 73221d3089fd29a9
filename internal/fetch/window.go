package fetch

import "fmt"

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// Window returns the range served for a page starting at from, capped by
// the batch size and by limit (the last block that may be served).
// ok is false when from is already past limit.
func Window(from, batchSize, limit uint64) (BlockRange, bool, error) {
	if batchSize == 0 {
		return BlockRange{}, false, fmt.Errorf("batch size must be greater than zero")
	}
	if from > limit {
		return BlockRange{}, false, nil
	}

	end := limit
	if remaining := limit - from + 1; remaining > batchSize {
		end = from + batchSize - 1
	}
	return BlockRange{From: from, To: end}, true, nil
}

// Blocks lists every block number in the range.
func (r BlockRange) Blocks() []uint64 {
	out := make([]uint64, 0, r.To-r.From+1)
	for n := r.From; ; n++ {
		out = append(out, n)
		if n == r.To {
			break
		}
	}
	return out
}
