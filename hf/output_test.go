package hf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedAccessors(t *testing.T) {
	batch := newEncoded(FormatMatrix)
	batch.setField(FieldInputIDs, [][]int{{1, 2, 3}, {4, 5, 6}})
	batch.setField(FieldAttentionMask, [][]int{{1, 1, 1}, {1, 1, 0}})

	assert.Equal(t, []string{FieldInputIDs, FieldAttentionMask}, batch.Fields())
	assert.True(t, batch.Has(FieldInputIDs))
	assert.False(t, batch.Has(FieldLength))

	_, err := batch.Rows("bogus")
	require.Error(t, err)

	m, err := batch.Matrix(FieldInputIDs)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, m.At(1, 2))

	tensor, err := batch.Tensor(FieldInputIDs)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, tensor.Shape().Dimensions)

	value, err := batch.Value(FieldInputIDs)
	require.NoError(t, err)
	_, isMatrix := value.(interface{ Dims() (int, int) })
	assert.True(t, isMatrix)
}

func TestEncodedRaggedRowsRejectFixedShapes(t *testing.T) {
	batch := newEncoded(FormatLists)
	batch.setField(FieldInputIDs, [][]int{{1, 2}, {3}})

	_, err := batch.Matrix(FieldInputIDs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")

	_, err = batch.Tensor(FieldInputIDs)
	require.Error(t, err)

	rows, err := batch.Lists(FieldInputIDs)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEncodedEmptyBatch(t *testing.T) {
	batch := newEncoded(FormatTensor)
	batch.setField(FieldInputIDs, nil)

	_, err := batch.Tensor(FieldInputIDs)
	require.Error(t, err)
	rows, err := batch.Lists(FieldInputIDs)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, "lists", FormatLists.String())
	assert.Equal(t, "matrix", FormatMatrix.String())
	assert.Equal(t, "tensor", FormatTensor.String())
	assert.Equal(t, "invalid", Format(99).String())

	for _, f := range []Format{FormatLists, FormatMatrix, FormatTensor} {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
	_, err := ParseFormat("bogus")
	require.Error(t, err)
}
