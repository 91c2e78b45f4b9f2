package bvh

// A linear congruential generator used for reservoir sampling in local
// queries. It is cheap and deterministic for a given seed.
type LCG uint32

// Create a generator from a seed.
func NewLCG(seed uint32) *LCG {
	rng := LCG(seed)
	rng.Uint32()
	return &rng
}

// Advance the generator and return its new state.
func (rng *LCG) Uint32() uint32 {
	*rng = LCG(1103515245*uint32(*rng) + 12345)
	return uint32(*rng)
}

// Get a float in [0, 1).
func (rng *LCG) Float32() float32 {
	return float32(rng.Uint32()>>8) * (1.0 / 16777216.0)
}
