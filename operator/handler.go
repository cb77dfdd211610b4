package operator

import "fmt"

// Float32AverageHandler is the default ComputationHandler: it averages
// scalar float32 parameters, or element-wise averages []float32
// parameters. Networks whose parameters are a richer type (a real tensor
// backend) should supply their own ComputationHandler — the operator core
// never inspects the concrete parameter type itself.
type Float32AverageHandler struct{}

// NewFloat32AverageHandler returns the default CPU float32 handler.
func NewFloat32AverageHandler() *Float32AverageHandler {
	return &Float32AverageHandler{}
}

// Average implements ComputationHandler.
func (Float32AverageHandler) Average(values []any) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("operator: average requires at least one value")
	}

	switch values[0].(type) {
	case float32:
		var sum float32

		for _, v := range values {
			f, ok := v.(float32)
			if !ok {
				return nil, fmt.Errorf("operator: mixed parameter types in average")
			}

			sum += f
		}

		return sum / float32(len(values)), nil
	case []float32:
		first, _ := values[0].([]float32)
		out := make([]float32, len(first))

		for _, v := range values {
			s, ok := v.([]float32)
			if !ok || len(s) != len(out) {
				return nil, fmt.Errorf("operator: mismatched slice parameter in average")
			}

			for i, f := range s {
				out[i] += f
			}
		}

		for i := range out {
			out[i] /= float32(len(values))
		}

		return out, nil
	default:
		return nil, fmt.Errorf("operator: unsupported parameter type %T for default average handler", values[0])
	}
}
