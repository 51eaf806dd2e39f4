package dice

import "go.uber.org/zap"

// Roller produces the percentile rolls used by combat resolution.
// It is safe for concurrent use when its Source is.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller over src.
//
// Precondition: src must be non-nil. logger may be nil (rolls are not logged).
// Postcondition: Returns a non-nil Roller.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Src returns the underlying randomness source.
func (r *Roller) Src() Source {
	return r.src
}

// D100 returns a uniform random int in [1, 100].
//
// Postcondition: 1 <= result <= 100.
func (r *Roller) D100() int {
	v := r.src.Intn(100) + 1
	if r.logger != nil {
		r.logger.Debug("d100 roll", zap.Int("result", v))
	}
	return v
}

// Percent returns true with probability chance/100.
//
// Precondition: 0 <= chance <= 100.
// Postcondition: Always false for chance <= 0; always true for chance >= 100.
func (r *Roller) Percent(chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	ok := r.src.Intn(100) < chance
	if r.logger != nil {
		r.logger.Debug("percent roll", zap.Int("chance", chance), zap.Bool("success", ok))
	}
	return ok
}
