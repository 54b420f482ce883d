package breath

// Butterworth low-pass, 3rd order, wc = 0.3 of Nyquist. Smooths the raw
// position before differentiation.
var (
	butter3B = []float64{4.95329964e-2, 3 * 4.95329964e-2, 3 * 4.95329964e-2, 4.95329964e-2}
	butter3A = []float64{1, -1.16191748, 6.95942756e-1, -1.37761301e-1}
)

// Butterworth low-pass, 2nd order, wc = 0.03 of Nyquist. Smooths amplitudes
// and cycle durations.
var (
	butter2B = []float64{2.08056714e-3, 2 * 2.08056714e-3, 2.08056714e-3}
	butter2A = []float64{1, -1.86689228, 8.75214548e-1}
)

// ring holds the trailing taps of one filter stage. It is indexed by the grid
// index shared by every stage, so all rings advance together.
type ring []float64

func newRing(size int) ring {
	return make(ring, size)
}

// at returns the value k grid points before n.
func (r ring) at(n uint64, k int) float64 {
	size := uint64(len(r))
	return r[(n+size-uint64(k))%size]
}

func (r ring) set(n uint64, v float64) {
	r[n%uint64(len(r))] = v
}

// iir applies y[n] = Σ b_i·x[n-i] - Σ a_i·y[n-i] with a[0] = 1.
type iir struct {
	b, a []float64
	x, y ring
}

func newIIR(b, a []float64, taps int) *iir {
	return &iir{
		b: b,
		a: a,
		x: newRing(taps),
		y: newRing(taps),
	}
}

func newButter3() *iir {
	return newIIR(butter3B, butter3A, 5)
}

func newButter2() *iir {
	return newIIR(butter2B, butter2A, 3)
}

// apply filters one input at grid index n and returns the output.
func (f *iir) apply(n uint64, in float64) float64 {
	f.x.set(n, in)

	z := 0.0
	for i, b := range f.b {
		z += b * f.x.at(n, i)
	}
	for i := 1; i < len(f.a); i++ {
		z -= f.a[i] * f.y.at(n, i)
	}

	f.y.set(n, z)
	return z
}

// out returns the output k grid points before n.
func (f *iir) out(n uint64, k int) float64 {
	return f.y.at(n, k)
}

// highPass removes the DC offset with a first order difference filter whose
// pole ramps from alphaStart toward alphaSteady after each calibration.
type highPass struct {
	alpha float64
	y     ring
}

func newHighPass() *highPass {
	return &highPass{
		alpha: alphaStart,
		y:     newRing(3),
	}
}

// apply computes y[n] = x[n] - x[n-1] + alpha·y[n-1] and advances alpha.
func (h *highPass) apply(n uint64, x, xPrev float64) float64 {
	y := x - xPrev + h.alpha*h.y.at(n, 1)
	h.y.set(n, y)

	h.alpha = min(alphaRate*h.alpha+alphaBlend*alphaSteady, alphaSteady)

	return y
}

func (h *highPass) recalibrate() {
	h.alpha = alphaStart
}
