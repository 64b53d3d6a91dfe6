package crawl

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// fingerprint computes a 64-bit SimHash of text over lower-cased word tokens.
func fingerprint(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// distance is the Hamming distance between two fingerprints.
func distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// seenTexts remembers the fingerprints of blocks already included.
type seenTexts struct {
	threshold int
	prints    []uint64
}

// duplicate reports whether text is within threshold of an included block.
func (s *seenTexts) duplicate(text string) bool {
	fp := fingerprint(text)
	for _, p := range s.prints {
		if distance(fp, p) <= s.threshold {
			return true
		}
	}
	return false
}

func (s *seenTexts) add(text string) {
	s.prints = append(s.prints, fingerprint(text))
}
