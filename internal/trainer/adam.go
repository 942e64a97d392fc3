package trainer

import "math"

// Adam implements the Adam optimizer with Keras defaults for the moment
// decay rates and epsilon.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m, v [][]float64
}

// NewAdam returns an optimizer whose moment buffers match the shapes of params.
func NewAdam(learningRate float64, params [][]float64) *Adam {
	a := &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		m:            make([][]float64, len(params)),
		v:            make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p))
		a.v[i] = make([]float64, len(p))
	}
	return a
}

// Step applies one update to params in place.
func (a *Adam) Step(params, grads [][]float64) {
	a.step++
	t := float64(a.step)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g[j]
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g[j]*g[j]
			p[j] -= lr * m[j] / (math.Sqrt(v[j]) + a.Epsilon)
		}
	}
}

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int {
	return a.step
}
