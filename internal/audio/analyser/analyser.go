// Package analyser implements real-time frequency analysis over a stream of
// PCM samples, mirroring the behaviour of the browser AnalyserNode: a windowed
// FFT over the most recent block of samples, temporal smoothing and a decibel
// range mapped onto 8-bit magnitudes.
package analyser

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultFFTSize               = 2048
	DefaultSmoothingTimeConstant = 0.8
	DefaultMinDecibels           = -100.0
	DefaultMaxDecibels           = -30.0

	minFFTSize = 32
	maxFFTSize = 32768
)

// Options configures an Analyser. Zero values select the defaults.
type Options struct {
	FFTSize               int
	SmoothingTimeConstant float64
	MinDecibels           float64
	MaxDecibels           float64
}

// Analyser holds the analysis context for one recording session.
type Analyser struct {
	mu sync.Mutex

	fftSize   int
	smoothing float64
	minDB     float64
	maxDB     float64

	fft    *fourier.FFT
	window []float64
	ring   []float64
	pos    int
	frame  []float64
	coeffs []complex128
	smooth []float64
	closed bool
}

// New creates an Analyser.
func New(opts Options) (*Analyser, error) {
	if opts.FFTSize == 0 {
		opts.FFTSize = DefaultFFTSize
	}
	if opts.FFTSize < minFFTSize || opts.FFTSize > maxFFTSize || opts.FFTSize&(opts.FFTSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two between %d and %d, got %d", minFFTSize, maxFFTSize, opts.FFTSize)
	}
	if opts.SmoothingTimeConstant == 0 {
		opts.SmoothingTimeConstant = DefaultSmoothingTimeConstant
	}
	if opts.SmoothingTimeConstant < 0 || opts.SmoothingTimeConstant > 1 {
		return nil, fmt.Errorf("smoothing time constant must be between 0 and 1, got %f", opts.SmoothingTimeConstant)
	}
	if opts.MinDecibels == 0 && opts.MaxDecibels == 0 {
		opts.MinDecibels = DefaultMinDecibels
		opts.MaxDecibels = DefaultMaxDecibels
	}
	if opts.MinDecibels >= opts.MaxDecibels {
		return nil, fmt.Errorf("min decibels (%f) must be lower than max decibels (%f)", opts.MinDecibels, opts.MaxDecibels)
	}

	win := make([]float64, opts.FFTSize)
	for i := range win {
		win[i] = 1
	}
	window.Blackman(win)

	return &Analyser{
		fftSize:   opts.FFTSize,
		smoothing: opts.SmoothingTimeConstant,
		minDB:     opts.MinDecibels,
		maxDB:     opts.MaxDecibels,
		fft:       fourier.NewFFT(opts.FFTSize),
		window:    win,
		ring:      make([]float64, opts.FFTSize),
		frame:     make([]float64, opts.FFTSize),
		coeffs:    make([]complex128, opts.FFTSize/2+1),
		smooth:    make([]float64, opts.FFTSize/2),
	}, nil
}

// FFTSize returns the transform size.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount returns the number of magnitudes produced per snapshot.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// Write appends samples in the range [-1, 1]. Only the most recent FFTSize
// samples take part in the next analysis.
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if len(samples) > a.fftSize {
		samples = samples[len(samples)-a.fftSize:]
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.fftSize
	}
}

// WritePCM16 appends little-endian signed 16-bit mono samples. A trailing odd
// byte is ignored.
func (a *Analyser) WritePCM16(p []byte) {
	samples := make([]float64, len(p)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(p[2*i:]))
		samples[i] = float64(v) / 32768
	}
	a.Write(samples)
}

// ByteFrequencyData fills dst with the current magnitude of each frequency bin
// scaled to 0..255. At most FrequencyBinCount values are written. After Close
// the written values are zero.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(dst)
	if n > len(a.smooth) {
		n = len(a.smooth)
	}
	if a.closed {
		clear(dst[:n])
		return
	}

	a.analyse()

	rangeScale := 255 / (a.maxDB - a.minDB)
	for k := 0; k < n; k++ {
		v := a.smooth[k]
		if v <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(v)
		scaled := rangeScale * (db - a.minDB)
		switch {
		case scaled <= 0:
			dst[k] = 0
		case scaled >= 255:
			dst[k] = 255
		default:
			dst[k] = byte(scaled)
		}
	}
}

// analyse runs the windowed transform and updates the smoothed magnitudes.
// Callers hold a.mu.
func (a *Analyser) analyse() {
	// Unroll the ring so the oldest sample comes first.
	copy(a.frame, a.ring[a.pos:])
	copy(a.frame[a.fftSize-a.pos:], a.ring[:a.pos])
	for i := range a.frame {
		a.frame[i] *= a.window[i]
	}

	a.fft.Coefficients(a.coeffs, a.frame)

	scale := 1 / float64(a.fftSize)
	for k := range a.smooth {
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) * scale
		a.smooth[k] = a.smoothing*a.smooth[k] + (1-a.smoothing)*mag
	}
}

// Close releases the analysis context. It is safe to call more than once.
func (a *Analyser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (a *Analyser) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}
