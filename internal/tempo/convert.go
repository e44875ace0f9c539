package tempo

import "fmt"

// NetCDF stores numbers in whatever width the producer chose; the decoder
// widens everything to float64 once so the rest of the pipeline stays
// type-free.

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func widen1[T number](s []T) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

func widen2[T number](s [][]T) [][]float64 {
	out := make([][]float64, len(s))
	for i, row := range s {
		out[i] = widen1(row)
	}
	return out
}

func widen3[T number](s [][][]T) [][][]float64 {
	out := make([][][]float64, len(s))
	for i, m := range s {
		out[i] = widen2(m)
	}
	return out
}

func toFloat1D(v interface{}) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return s, nil
	case []float32:
		return widen1(s), nil
	case []int64:
		return widen1(s), nil
	case []int32:
		return widen1(s), nil
	case []int16:
		return widen1(s), nil
	case []int8:
		return widen1(s), nil
	case []uint64:
		return widen1(s), nil
	case []uint32:
		return widen1(s), nil
	case []uint16:
		return widen1(s), nil
	case []uint8:
		return widen1(s), nil
	}
	return nil, fmt.Errorf("unsupported array type %T", v)
}

func toFloat2D(v interface{}) ([][]float64, error) {
	switch s := v.(type) {
	case [][]float64:
		return s, nil
	case [][]float32:
		return widen2(s), nil
	case [][]int64:
		return widen2(s), nil
	case [][]int32:
		return widen2(s), nil
	case [][]int16:
		return widen2(s), nil
	case [][]int8:
		return widen2(s), nil
	case [][]uint64:
		return widen2(s), nil
	case [][]uint32:
		return widen2(s), nil
	case [][]uint16:
		return widen2(s), nil
	case [][]uint8:
		return widen2(s), nil
	}
	return nil, fmt.Errorf("unsupported matrix type %T", v)
}

func toFloat3D(v interface{}) ([][][]float64, error) {
	switch s := v.(type) {
	case [][][]float64:
		return s, nil
	case [][][]float32:
		return widen3(s), nil
	case [][][]int64:
		return widen3(s), nil
	case [][][]int32:
		return widen3(s), nil
	case [][][]int16:
		return widen3(s), nil
	case [][][]int8:
		return widen3(s), nil
	case [][][]uint64:
		return widen3(s), nil
	case [][][]uint32:
		return widen3(s), nil
	case [][][]uint16:
		return widen3(s), nil
	case [][][]uint8:
		return widen3(s), nil
	}
	return nil, fmt.Errorf("unsupported cube type %T", v)
}
