package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

type ratio struct{ n, d uint64 }

// ratioSampler admits n out of every d calls. A zero ratio admits everything.
type ratioSampler struct {
	r     atomic.Pointer[ratio]
	calls atomic.Uint64
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

func (s *ratioSampler) Set(n, d int) {
	r := &ratio{}
	if n > 0 && d > 0 {
		r.n, r.d = uint64(min(n, d)), uint64(d)
	}
	s.r.Store(r)
	s.calls.Store(0)
}

func (s *ratioSampler) Allow() bool {
	r := s.r.Load()
	if r == nil || r.d == 0 {
		return true
	}
	return (s.calls.Add(1)-1)%r.d < r.n
}

// parseRatioSpec reads "N/M", or "M" as shorthand for 1/M. Invalid input yields 0/0.
func parseRatioSpec(spec string) (int, int) {
	num, den, hasSlash := strings.Cut(strings.TrimSpace(spec), "/")
	if !hasSlash {
		if m, err := strconv.Atoi(num); err == nil && m > 0 {
			return 1, m
		}
		return 0, 0
	}
	n, errN := strconv.Atoi(strings.TrimSpace(num))
	d, errD := strconv.Atoi(strings.TrimSpace(den))
	if errN != nil || errD != nil {
		return 0, 0
	}
	return n, d
}
