package analyser

// FrequencySnapshot holds one magnitude per frequency bin captured at a single
// instant. Snapshots returned by a Sampler are overwritten by the next call.
type FrequencySnapshot []byte

// Source is anything that can fill a buffer with byte frequency data.
type Source interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
}

// Sampler pulls snapshots from a Source into one reused buffer.
type Sampler struct {
	src Source
	buf FrequencySnapshot
}

// NewSampler creates a Sampler whose snapshots have src.FrequencyBinCount() bins.
func NewSampler(src Source) *Sampler {
	return &Sampler{
		src: src,
		buf: make(FrequencySnapshot, src.FrequencyBinCount()),
	}
}

// Sample overwrites the shared buffer with the current magnitudes and returns
// it. The result must not be retained across calls.
func (s *Sampler) Sample() FrequencySnapshot {
	s.src.ByteFrequencyData(s.buf)
	return s.buf
}
