package infer

import "math"

// softmax is a multinomial logistic regression over sparse features.
type softmax struct {
	weights [][]float64 // [class][feature]
	bias    []float64
}

func newSoftmax(classes, size int) *softmax {
	w := make([][]float64, classes)
	for k := range w {
		w[k] = make([]float64, size)
	}
	return &softmax{weights: w, bias: make([]float64, classes)}
}

// probabilities returns the class distribution for x.
func (m *softmax) probabilities(x []feature) []float64 {
	logits := make([]float64, len(m.bias))
	for k := range logits {
		z := m.bias[k]
		row := m.weights[k]
		for _, f := range x {
			if f.index < len(row) {
				z += row[f.index] * f.value
			}
		}
		logits[k] = z
	}
	return softmaxOf(logits)
}

// predict returns the most probable class; ties keep the lowest index.
func (m *softmax) predict(x []feature) int {
	p := m.probabilities(x)
	best := 0
	for k := 1; k < len(p); k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	return best
}

func softmaxOf(z []float64) []float64 {
	out := make([]float64, len(z))
	if len(z) == 0 {
		return out
	}
	max := z[0]
	for _, v := range z[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// fit runs full-batch gradient descent with L2 regularization. It is
// deterministic for a given input order.
func (m *softmax) fit(xs [][]feature, ys []int, epochs int, lr, l2 float64) {
	if len(xs) == 0 {
		return
	}
	classes := len(m.bias)
	gradW := make([][]float64, classes)
	for k := range gradW {
		gradW[k] = make([]float64, len(m.weights[k]))
	}
	gradB := make([]float64, classes)
	n := float64(len(xs))

	for epoch := 0; epoch < epochs; epoch++ {
		for k := range gradW {
			for j := range gradW[k] {
				gradW[k][j] = 0
			}
			gradB[k] = 0
		}
		for i, x := range xs {
			p := m.probabilities(x)
			for k := 0; k < classes; k++ {
				g := p[k]
				if k == ys[i] {
					g--
				}
				if g == 0 {
					continue
				}
				gradB[k] += g
				for _, f := range x {
					gradW[k][f.index] += g * f.value
				}
			}
		}
		for k := 0; k < classes; k++ {
			row := m.weights[k]
			for j := range row {
				row[j] -= lr * (gradW[k][j]/n + l2*row[j])
			}
			m.bias[k] -= lr * gradB[k] / n
		}
	}
}
