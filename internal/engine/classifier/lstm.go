package classifier

import (
	"math"
	"math/rand"
)

// params holds every trainable weight as a flat row-major slice.
// Gate blocks inside wx, wh and b are ordered input, forget, cell, output.
type params struct {
	vocab, embed, hidden int

	emb []float64 // [vocab, embed]; row 0 (padding) stays zero
	wx  []float64 // [4*hidden, embed]
	wh  []float64 // [4*hidden, hidden]
	b   []float64 // [4*hidden]
	wo  []float64 // [hidden]
	bo  []float64 // [1]
}

func newParams(vocab, embed, hidden int) *params {
	g := 4 * hidden
	return &params{
		vocab:  vocab,
		embed:  embed,
		hidden: hidden,
		emb:    make([]float64, vocab*embed),
		wx:     make([]float64, g*embed),
		wh:     make([]float64, g*hidden),
		b:      make([]float64, g),
		wo:     make([]float64, hidden),
		bo:     make([]float64, 1),
	}
}

// initParams draws embeddings from N(0,1) and recurrent and projection
// weights from U(-1/sqrt(hidden), 1/sqrt(hidden)).
func initParams(vocab, embed, hidden int, rng *rand.Rand) *params {
	p := newParams(vocab, embed, hidden)
	for i := embed; i < len(p.emb); i++ {
		p.emb[i] = rng.NormFloat64()
	}
	k := 1 / math.Sqrt(float64(hidden))
	for _, t := range [][]float64{p.wx, p.wh, p.b, p.wo, p.bo} {
		for i := range t {
			t[i] = (rng.Float64()*2 - 1) * k
		}
	}
	return p
}

// tensors lists the parameter slices in a fixed order shared with the
// optimizer and the gradient buffers.
func (p *params) tensors() [][]float64 {
	return [][]float64{p.emb, p.wx, p.wh, p.b, p.wo, p.bo}
}

func (p *params) zero() {
	for _, t := range p.tensors() {
		clear(t)
	}
}

// step caches one unmasked time step for backpropagation.
type step struct {
	id           int
	hPrev, cPrev []float64
	i, f, g, o   []float64
	c, tanhC     []float64
}

// trace is the forward pass of a single sequence.
type trace struct {
	steps []step
	h     []float64 // final hidden state
	logit float64
	prob  float64
}

// forward runs the network over seq. Padding positions are skipped so hidden
// and cell state pass through them unchanged; ids outside the vocabulary are
// read as unknown.
func (p *params) forward(seq []int, keep bool) trace {
	H, E := p.hidden, p.embed
	h := make([]float64, H)
	c := make([]float64, H)
	z := make([]float64, 4*H)

	var tr trace
	if keep {
		tr.steps = make([]step, 0, len(seq))
	}

	for _, id := range seq {
		if id == padID {
			continue
		}
		if id < 0 || id >= p.vocab {
			id = unkID
		}
		x := p.emb[id*E : (id+1)*E]

		copy(z, p.b)
		for r := 0; r < 4*H; r++ {
			rowX := p.wx[r*E : (r+1)*E]
			rowH := p.wh[r*H : (r+1)*H]
			var s float64
			for j, w := range rowX {
				s += w * x[j]
			}
			for j, w := range rowH {
				s += w * h[j]
			}
			z[r] += s
		}

		st := step{
			id:    id,
			hPrev: h,
			cPrev: c,
			i:     make([]float64, H),
			f:     make([]float64, H),
			g:     make([]float64, H),
			o:     make([]float64, H),
			c:     make([]float64, H),
			tanhC: make([]float64, H),
		}
		hNext := make([]float64, H)
		for k := 0; k < H; k++ {
			st.i[k] = sigmoid(z[k])
			st.f[k] = sigmoid(z[H+k])
			st.g[k] = math.Tanh(z[2*H+k])
			st.o[k] = sigmoid(z[3*H+k])
			st.c[k] = st.f[k]*c[k] + st.i[k]*st.g[k]
			st.tanhC[k] = math.Tanh(st.c[k])
			hNext[k] = st.o[k] * st.tanhC[k]
		}
		h, c = hNext, st.c
		if keep {
			tr.steps = append(tr.steps, st)
		}
	}

	tr.h = h
	tr.logit = p.bo[0]
	for k, w := range p.wo {
		tr.logit += w * h[k]
	}
	tr.prob = sigmoid(tr.logit)
	return tr
}

// backward accumulates into grad the gradient of the loss for one sequence,
// given dLogit, the loss derivative with respect to the pre-sigmoid output.
func (p *params) backward(tr trace, dLogit float64, grad *params) {
	H, E := p.hidden, p.embed

	grad.bo[0] += dLogit
	dh := make([]float64, H)
	for k := range dh {
		grad.wo[k] += dLogit * tr.h[k]
		dh[k] = dLogit * p.wo[k]
	}
	dc := make([]float64, H)
	dz := make([]float64, 4*H)

	for t := len(tr.steps) - 1; t >= 0; t-- {
		st := tr.steps[t]
		for k := 0; k < H; k++ {
			do := dh[k] * st.tanhC[k]
			dc[k] += dh[k] * st.o[k] * (1 - st.tanhC[k]*st.tanhC[k])
			dz[k] = dc[k] * st.g[k] * st.i[k] * (1 - st.i[k])
			dz[H+k] = dc[k] * st.cPrev[k] * st.f[k] * (1 - st.f[k])
			dz[2*H+k] = dc[k] * st.i[k] * (1 - st.g[k]*st.g[k])
			dz[3*H+k] = do * st.o[k] * (1 - st.o[k])
			dc[k] *= st.f[k]
		}

		x := p.emb[st.id*E : (st.id+1)*E]
		dx := grad.emb[st.id*E : (st.id+1)*E]
		dhPrev := make([]float64, H)
		for r := 0; r < 4*H; r++ {
			d := dz[r]
			if d == 0 {
				continue
			}
			grad.b[r] += d
			rowX := p.wx[r*E : (r+1)*E]
			gX := grad.wx[r*E : (r+1)*E]
			for j := range rowX {
				gX[j] += d * x[j]
				dx[j] += d * rowX[j]
			}
			rowH := p.wh[r*H : (r+1)*H]
			gH := grad.wh[r*H : (r+1)*H]
			for j := range rowH {
				gH[j] += d * st.hPrev[j]
				dhPrev[j] += d * rowH[j]
			}
		}
		dh = dhPrev
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
