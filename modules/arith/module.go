// Package arith provides small numeric task functions: const, sum and mul.
package arith

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vk/dagflow/internal/registry"
)

var (
	// ErrNotNumber is returned for operands that are not finite numbers.
	ErrNotNumber = errors.New("operand is not a number")
	// ErrOverflow is returned when a result does not fit int64 or float64.
	ErrOverflow = errors.New("numeric overflow")
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("const", Const)
	r.Register("sum", Sum)
	r.Register("mul", Mul)
}

// Const returns the "value" kwarg.
func Const(_ context.Context, _ []any, kwargs map[string]any) (any, error) {
	v, ok := kwargs["value"]
	if !ok {
		return nil, errors.New("const: missing kwarg \"value\"")
	}
	return v, nil
}

// Sum adds the inputs to the optional "start" kwarg.
func Sum(_ context.Context, inputs []any, kwargs map[string]any) (any, error) {
	acc := number{i: 0, isInt: true}
	if start, ok := kwargs["start"]; ok {
		n, err := toNumber(start)
		if err != nil {
			return nil, fmt.Errorf("sum: start: %w", err)
		}
		acc = n
	}
	for i, in := range inputs {
		n, err := toNumber(in)
		if err != nil {
			return nil, fmt.Errorf("sum: input %d: %w", i, err)
		}
		if acc, err = acc.add(n); err != nil {
			return nil, fmt.Errorf("sum: input %d: %w", i, err)
		}
	}
	return acc.value(), nil
}

// Mul multiplies the inputs by the optional "factor" kwarg.
func Mul(_ context.Context, inputs []any, kwargs map[string]any) (any, error) {
	acc := number{i: 1, isInt: true}
	if factor, ok := kwargs["factor"]; ok {
		n, err := toNumber(factor)
		if err != nil {
			return nil, fmt.Errorf("mul: factor: %w", err)
		}
		acc = n
	}
	for i, in := range inputs {
		n, err := toNumber(in)
		if err != nil {
			return nil, fmt.Errorf("mul: input %d: %w", i, err)
		}
		if acc, err = acc.mul(n); err != nil {
			return nil, fmt.Errorf("mul: input %d: %w", i, err)
		}
	}
	return acc.value(), nil
}

// number keeps integer arithmetic exact until a float shows up.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) add(o number) (number, error) {
	if n.isInt && o.isInt {
		r := n.i + o.i
		if (r > n.i) != (o.i > 0) {
			return number{}, fmt.Errorf("%w: %d + %d", ErrOverflow, n.i, o.i)
		}
		return number{i: r, isInt: true}, nil
	}
	return floatResult(n.float() + o.float())
}

func (n number) mul(o number) (number, error) {
	if n.isInt && o.isInt {
		if n.i == 0 || o.i == 0 {
			return number{i: 0, isInt: true}, nil
		}
		r := n.i * o.i
		if r/o.i != n.i || (n.i == -1 && o.i == math.MinInt64) || (o.i == -1 && n.i == math.MinInt64) {
			return number{}, fmt.Errorf("%w: %d * %d", ErrOverflow, n.i, o.i)
		}
		return number{i: r, isInt: true}, nil
	}
	return floatResult(n.float() * o.float())
}

func floatResult(f float64) (number, error) {
	if math.IsInf(f, 0) {
		return number{}, ErrOverflow
	}
	return number{f: f}, nil
}

func (n number) value() any {
	if n.isInt {
		return n.i
	}
	return n.f
}

func toNumber(v any) (number, error) {
	switch x := v.(type) {
	case int:
		return number{i: int64(x), isInt: true}, nil
	case int8:
		return number{i: int64(x), isInt: true}, nil
	case int16:
		return number{i: int64(x), isInt: true}, nil
	case int32:
		return number{i: int64(x), isInt: true}, nil
	case int64:
		return number{i: x, isInt: true}, nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return number{i: int64(x), isInt: true}, nil
	case uint16:
		return number{i: int64(x), isInt: true}, nil
	case uint32:
		return number{i: int64(x), isInt: true}, nil
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return number{}, fmt.Errorf("%w: %T", ErrNotNumber, v)
	}
}

func fromUint(x uint64) (number, error) {
	if x > math.MaxInt64 {
		return number{}, fmt.Errorf("%w: %d exceeds int64", ErrOverflow, x)
	}
	return number{i: int64(x), isInt: true}, nil
}

func fromFloat(x float64) (number, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return number{}, fmt.Errorf("%w: %v", ErrNotNumber, x)
	}
	return number{f: x}, nil
}
