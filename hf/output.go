package hf

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Output field names, following the HuggingFace transformers convention.
const (
	FieldInputIDs      = "input_ids"
	FieldAttentionMask = "attention_mask"
	FieldTokenTypeIDs  = "token_type_ids"
	FieldLength        = "length"
)

// Format selects the container type Transform materializes its fields in.
type Format int

const (
	// FormatLists keeps each field as a ragged [][]int; rows are neither
	// padded nor truncated.
	FormatLists Format = iota
	// FormatMatrix materializes fields as gonum *mat.Dense matrices of
	// shape (documents, max length).
	FormatMatrix
	// FormatTensor materializes fields as gomlx *tensors.Tensor of shape
	// (documents, max length).
	FormatTensor
)

var formatNames = map[Format]string{
	FormatLists:  "lists",
	FormatMatrix: "matrix",
	FormatTensor: "tensor",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "invalid"
}

// ParseFormat converts a format name ("lists", "matrix", "tensor") back to
// its Format value.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown output format %q", name)
}

// Encoded is the result of Transform: a mapping from field name to a batch
// of integer rows, materializable as nested lists, a gonum matrix or a gomlx
// tensor depending on the configured format.
type Encoded struct {
	format Format
	order  []string
	fields map[string][][]int
}

func newEncoded(format Format) *Encoded {
	return &Encoded{format: format, fields: map[string][][]int{}}
}

// NewEncoded builds a batch from precomputed id rows, for callers that hold
// token ids from outside Transform and want to feed InverseTransform.
func NewEncoded(format Format, inputIDs [][]int) *Encoded {
	e := newEncoded(format)
	e.setField(FieldInputIDs, inputIDs)
	return e
}

func (e *Encoded) setField(name string, rows [][]int) {
	if _, ok := e.fields[name]; !ok {
		e.order = append(e.order, name)
	}
	e.fields[name] = rows
}

// Format returns the container format the batch was encoded for.
func (e *Encoded) Format() Format { return e.format }

// Fields returns the field names present, in insertion order.
func (e *Encoded) Fields() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Has returns whether the named field is present.
func (e *Encoded) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

// Rows returns the named field as its canonical [][]int rows, or an error if
// the field is absent.
func (e *Encoded) Rows(name string) ([][]int, error) {
	rows, ok := e.fields[name]
	if !ok {
		return nil, errors.Errorf("field %q not present in encoded batch (have %v)", name, e.order)
	}
	return rows, nil
}

// Lists returns the named field as nested lists. Unlike Matrix and Tensor it
// never requires rectangular rows.
func (e *Encoded) Lists(name string) ([][]int, error) {
	return e.Rows(name)
}

// rectangular checks all rows share one width and returns it.
func rectangular(name string, rows [][]int) (int, error) {
	if len(rows) == 0 {
		return 0, errors.Errorf("field %q has no rows to shape", name)
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return 0, errors.Errorf("field %q has ragged rows (row 0 has %d entries, row %d has %d); use the lists format",
				name, width, i, len(row))
		}
	}
	return width, nil
}

// Matrix returns the named field as a gonum matrix of shape
// (documents, row width). All rows must share the same width.
func (e *Encoded) Matrix(name string) (*mat.Dense, error) {
	rows, err := e.Rows(name)
	if err != nil {
		return nil, err
	}
	width, err := rectangular(name, rows)
	if err != nil {
		return nil, err
	}
	flat := make([]float64, 0, len(rows)*width)
	for _, row := range rows {
		for _, v := range row {
			flat = append(flat, float64(v))
		}
	}
	return mat.NewDense(len(rows), width, flat), nil
}

// Tensor returns the named field as a gomlx int64 tensor of shape
// (documents, row width). All rows must share the same width.
func (e *Encoded) Tensor(name string) (*tensors.Tensor, error) {
	rows, err := e.Rows(name)
	if err != nil {
		return nil, err
	}
	width, err := rectangular(name, rows)
	if err != nil {
		return nil, err
	}
	flat := make([]int64, 0, len(rows)*width)
	for _, row := range rows {
		for _, v := range row {
			flat = append(flat, int64(v))
		}
	}
	return tensors.FromFlatDataAndDimensions(flat, len(rows), width), nil
}

// Value returns the named field in the batch's configured container format:
// [][]int for lists, *mat.Dense for matrix, *tensors.Tensor for tensor.
func (e *Encoded) Value(name string) (any, error) {
	switch e.format {
	case FormatLists:
		return e.Lists(name)
	case FormatMatrix:
		return e.Matrix(name)
	case FormatTensor:
		return e.Tensor(name)
	default:
		return nil, errors.Errorf("unsupported output format %d", e.format)
	}
}
