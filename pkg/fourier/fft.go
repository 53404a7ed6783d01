// Package fourier provides the in-place 2D Fourier transform used by the
// deconvolution pipeline. Rows and then columns are transformed with gonum's
// complex FFT, each pass spread over a bounded number of workers.
package fourier

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	gfourier "gonum.org/v1/gonum/dsp/fourier"

	"deconvolve/pkg/vector"
)

// maxLog2Pixels bounds the total pixel count to what a 32-bit length can
// address.
const maxLog2Pixels = 32

// FFT2D transforms 4-channel complex images whose sides are powers of two.
// Each channel is transformed independently.
type FFT2D struct {
	// Threads is the number of workers used per pass. It must be at least 1.
	Threads int

	// Logger receives debug output; nil disables it.
	Logger *logrus.Logger
}

// NewFFT2D creates a transform using the given number of workers.
func NewFFT2D(threads int, logger *logrus.Logger) *FFT2D {
	return &FFT2D{Threads: threads, Logger: logger}
}

// DefaultThreads returns the host's available parallelism, at least 1.
func DefaultThreads() int {
	return max(runtime.NumCPU(), 1)
}

// Transform performs a forward or inverse 2D FFT of data in place. data must
// hold exactly 2^log2Width * 2^log2Height pixels. The inverse is scaled by
// 1/(width*height) so that Transform(inverse) undoes Transform(forward).
func (f *FFT2D) Transform(data []vector.Cvec4, log2Width, log2Height uint32, inverse bool) error {
	if f.Threads < 1 {
		return statusError(InvalidThreadCount, "%d threads", f.Threads)
	}
	if log2Width > maxLog2Pixels || log2Height > maxLog2Pixels || log2Width+log2Height > maxLog2Pixels {
		return statusError(OutOfMemory, "2^%d pixels", log2Width+log2Height)
	}
	width := 1 << log2Width
	height := 1 << log2Height
	if len(data) != width*height {
		return statusError(InvalidDimension, "buffer holds %d pixels, want %dx%d", len(data), width, height)
	}

	if f.Logger != nil {
		f.Logger.WithFields(logrus.Fields{
			"width":   width,
			"height":  height,
			"threads": f.Threads,
			"inverse": inverse,
		}).Debug("running fourier transform")
	}

	// Row pass: element t of row y lives at y*width + t.
	err := f.parallel(height, func(lo, hi int) error {
		line := newLineFFT(width, inverse)
		for y := lo; y < hi; y++ {
			line.run(data, y*width, 1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Column pass: element t of column x lives at t*width + x.
	return f.parallel(width, func(lo, hi int) error {
		line := newLineFFT(height, inverse)
		for x := lo; x < hi; x++ {
			line.run(data, x, width)
		}
		return nil
	})
}

// parallel splits [0, n) into at most f.Threads contiguous chunks and runs fn
// on each concurrently.
func (f *FFT2D) parallel(n int, fn func(lo, hi int) error) error {
	workers := min(f.Threads, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

// lineFFT transforms one strided line of pixels at a time. It owns its gonum
// plan and scratch buffers, so each worker needs its own.
type lineFFT struct {
	n       int
	inverse bool
	plan    *gfourier.CmplxFFT
	in      []complex128
	out     []complex128
}

func newLineFFT(n int, inverse bool) *lineFFT {
	l := &lineFFT{n: n, inverse: inverse}
	if n > 1 {
		l.plan = gfourier.NewCmplxFFT(n)
		l.in = make([]complex128, n)
		l.out = make([]complex128, n)
	}
	return l
}

// run transforms the n pixels at data[start], data[start+stride], ... channel
// by channel.
func (l *lineFFT) run(data []vector.Cvec4, start, stride int) {
	if l.n == 1 {
		// A length-1 DFT is the identity in both directions.
		return
	}
	scale := complex(1/float64(l.n), 0)
	for c := 0; c < vector.N; c++ {
		for t := 0; t < l.n; t++ {
			l.in[t] = data[start+t*stride].Data[c]
		}
		if l.inverse {
			l.plan.Sequence(l.out, l.in)
			for t := range l.out {
				l.out[t] *= scale
			}
		} else {
			l.plan.Coefficients(l.out, l.in)
		}
		for t := 0; t < l.n; t++ {
			data[start+t*stride].Data[c] = l.out[t]
		}
	}
}
