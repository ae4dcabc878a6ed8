package vstbridge

import (
	"gosuda.org/vstbridge/internal/protocol"
)

type sample interface {
	float32 | float64
}

func sampleSize[T sample]() int {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return 4
	}
	return 8
}

// samplesOf views the frame payload as n samples of type T.
func samplesOf[T sample](f protocol.Frame, n int) ([]T, error) {
	var zero T
	if _, ok := any(zero).(float32); ok {
		s, err := f.Float32s(n)
		return any(s).([]T), err
	}
	s, err := f.Float64s(n)
	return any(s).([]T), err
}

// silence zeroes samples [from, to) of every output channel.
func silence[T sample](outputs [][]T, from, to int) {
	for _, out := range outputs {
		if from < len(out) {
			clear(out[from:min(to, len(out))])
		}
	}
}

// channels holds reusable per-channel views into a frame payload.
type channels[T sample] struct {
	inputs  [][]T
	outputs [][]T
}

// bind slices samples into ins input channels followed by outs output
// channels of n samples each.
func (c *channels[T]) bind(samples []T, ins, outs, n int) {
	c.inputs = resize(c.inputs, ins)
	c.outputs = resize(c.outputs, outs)
	for i := range ins {
		c.inputs[i] = samples[i*n : (i+1)*n : (i+1)*n]
	}
	for j := range outs {
		k := ins + j
		c.outputs[j] = samples[k*n : (k+1)*n : (k+1)*n]
	}
}

func resize[T sample](s [][]T, n int) [][]T {
	if cap(s) < n {
		return make([][]T, n)
	}
	return s[:n]
}
