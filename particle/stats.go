package particle

import (
	"io"
	"sort"
)

// Tail ratios reported by KEStats, largest slice first.
var keTailRatios = []float64{0.3, 0.03, 0.003, 0.0003, 0.00003, 0.000003}

// KEStats accumulates kinetic energy samples across dump files and reports
// the high tail of their distribution.
type KEStats struct {
	ke []float32
}

// Quantile is one entry of a tail summary: the Ratio of particles whose
// kinetic energy is at or above Value.
type Quantile struct {
	Ratio float64
	Value float32
}

// AddFile reads every record of one dump and returns the number of particles
// consumed.
func (s *KEStats) AddFile(path string) (int, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n := 0
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		s.ke = append(s.ke, p.KE)
		n++
	}
	return n, nil
}

// Count returns the number of accumulated samples.
func (s *KEStats) Count() int {
	return len(s.ke)
}

// Summary sorts the samples and returns the tail cutoffs. The receiver is
// spent afterwards.
func (s *KEStats) Summary() []Quantile {
	sort.Slice(s.ke, func(i, j int) bool { return s.ke[i] < s.ke[j] })
	n := len(s.ke)
	if n == 0 {
		return nil
	}
	out := make([]Quantile, 0, len(keTailRatios))
	for _, r := range keTailRatios {
		idx := n - int(float64(n)*r)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		out = append(out, Quantile{Ratio: r, Value: s.ke[idx]})
	}
	return out
}
