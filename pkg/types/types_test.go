package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageQueryClamp(t *testing.T) {
	tests := []struct {
		name string
		in   PageQuery
		want PageQuery
	}{
		{name: "valid query unchanged", in: PageQuery{PageNumber: 3, ItemsPerPage: 20}, want: PageQuery{PageNumber: 3, ItemsPerPage: 20}},
		{name: "page zero becomes one", in: PageQuery{PageNumber: 0, ItemsPerPage: 10}, want: PageQuery{PageNumber: 1, ItemsPerPage: 10}},
		{name: "negative page becomes one", in: PageQuery{PageNumber: -5, ItemsPerPage: 10}, want: PageQuery{PageNumber: 1, ItemsPerPage: 10}},
		{name: "zero page size becomes one", in: PageQuery{PageNumber: 2, ItemsPerPage: 0}, want: PageQuery{PageNumber: 2, ItemsPerPage: 1}},
		{name: "huge page is capped", in: PageQuery{PageNumber: math.MaxInt, ItemsPerPage: 2}, want: PageQuery{PageNumber: math.MaxInt/2 + 1, ItemsPerPage: 2}},
		{name: "huge page size keeps page", in: PageQuery{PageNumber: 1, ItemsPerPage: math.MaxInt}, want: PageQuery{PageNumber: 1, ItemsPerPage: math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestPageQueryOffset(t *testing.T) {
	assert.Equal(t, 0, PageQuery{PageNumber: 1, ItemsPerPage: 10}.Offset())
	assert.Equal(t, 20, PageQuery{PageNumber: 3, ItemsPerPage: 10}.Offset())
	assert.Equal(t, 0, PageQuery{PageNumber: -1, ItemsPerPage: 10}.Offset())
	assert.Equal(t, math.MaxInt-1, PageQuery{PageNumber: math.MaxInt, ItemsPerPage: 2}.Offset())
	assert.Equal(t, math.MaxInt-(math.MaxInt%3), PageQuery{PageNumber: math.MaxInt, ItemsPerPage: 3}.Offset())
}

func TestOperatorValidate(t *testing.T) {
	for _, op := range []Operator{OpEqual, OpNotEqual, OpLike, OpGreater, OpGreaterEqual, OpLess, OpLessEqual} {
		require.NoError(t, op.Validate(), "operator %q", op)
	}

	err := Operator("lke").Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOperator))
}

func TestOperatorSymbol(t *testing.T) {
	assert.Equal(t, "~", OpLike.Symbol())
	assert.Equal(t, "=", OpEqual.Symbol())
	assert.Equal(t, ">=", OpGreaterEqual.Symbol())
}

func TestFilterValuesCloneDropsEmpty(t *testing.T) {
	in := FilterValues{"name": {"a", "b"}, "status": nil, "tag": {}}
	out := in.Clone()

	assert.Equal(t, FilterValues{"name": {"a", "b"}}, out)

	out["name"][0] = "changed"
	assert.Equal(t, "a", in["name"][0], "clone must not share backing arrays")
}

func TestFilterValuesEqual(t *testing.T) {
	a := FilterValues{"name": {"a", "b"}, "empty": nil}
	assert.True(t, a.Equal(FilterValues{"name": {"a", "b"}}))
	assert.False(t, a.Equal(FilterValues{"name": {"b", "a"}}))
	assert.False(t, a.Equal(FilterValues{}))
	assert.True(t, FilterValues(nil).Equal(FilterValues{}))
}

func TestFilterKindValidate(t *testing.T) {
	require.NoError(t, FilterSearch.Validate())
	require.NoError(t, FilterSelect.Validate())
	require.NoError(t, FilterCheckbox.Validate())
	assert.ErrorIs(t, FilterKind("range").Validate(), ErrUnknownFilterKind)
}

func TestSortDirectionOpposite(t *testing.T) {
	assert.Equal(t, SortDesc, SortAsc.Opposite())
	assert.Equal(t, SortAsc, SortDesc.Opposite())
	assert.True(t, SortAsc.Valid())
	assert.False(t, SortDirection("up").Valid())
}
