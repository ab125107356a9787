package classifier

import "math"

// adam implements the Adam optimizer over a fixed list of parameter tensors.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  [][]float64
}

func newAdam(lr float64, tensors [][]float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	a.m = make([][]float64, len(tensors))
	a.v = make([][]float64, len(tensors))
	for i, t := range tensors {
		a.m[i] = make([]float64, len(t))
		a.v[i] = make([]float64, len(t))
	}
	return a
}

// step applies one bias-corrected update of params using grads. Both lists
// must be in the same order as the tensors given to newAdam.
func (a *adam) step(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]
			p[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.eps)
		}
	}
}
