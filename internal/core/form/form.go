// Package form turns the text fields of the vector form into validated
// scene vectors.
package form

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

// ErrInvalidNumber is wrapped by every field error.
var ErrInvalidNumber = errors.New("enter a valid number (exponent notation allowed)")

// Field names, row major: vector A then vector B.
const (
	X1 = "x1"
	Y1 = "y1"
	Z1 = "z1"
	X2 = "x2"
	Y2 = "y2"
	Z2 = "z2"
)

// Names lists the fields in form order.
var Names = [6]string{X1, Y1, Z1, X2, Y2, Z2}

// Fields is the raw text of the six inputs.
type Fields struct {
	X1 string `json:"x1"`
	Y1 string `json:"y1"`
	Z1 string `json:"z1"`
	X2 string `json:"x2"`
	Y2 string `json:"y2"`
	Z2 string `json:"z2"`
}

func (f Fields) values() [6]string {
	return [6]string{f.X1, f.Y1, f.Z1, f.X2, f.Y2, f.Z2}
}

// ValidationError collects the message of every rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidNumber
}

// Parse validates all six fields and returns the vectors. Either every
// field is valid or nothing is returned.
func Parse(f Fields) (scene.Vectors, error) {
	var (
		values [6]float64
		errs   map[string]string
	)
	for i, raw := range f.values() {
		v, err := ParseComponent(raw)
		if err != nil {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[Names[i]] = err.Error()
			continue
		}
		values[i] = v
	}
	if errs != nil {
		return scene.Vectors{}, &ValidationError{Fields: errs}
	}

	return scene.Vectors{
		A: geometry.Vec3(values[0], values[1], values[2]),
		B: geometry.Vec3(values[3], values[4], values[5]),
	}, nil
}

// ParseComponent parses one finite number. Surrounding whitespace is ignored.
func ParseComponent(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidNumber, raw)
	}
	return v, nil
}

// ParseVector parses "x,y,z".
func ParseVector(raw string) (geometry.Vector3, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return geometry.Vector3{}, fmt.Errorf("%w: %q needs three comma separated components", ErrInvalidNumber, raw)
	}
	var c [3]float64
	for i, p := range parts {
		v, err := ParseComponent(p)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.FromComponents(c), nil
}

// FieldsOf formats v back into form text, used to prefill clients.
func FieldsOf(v scene.Vectors) Fields {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return Fields{
		X1: f(v.A.X), Y1: f(v.A.Y), Z1: f(v.A.Z),
		X2: f(v.B.X), Y2: f(v.B.Y), Z2: f(v.B.Z),
	}
}
