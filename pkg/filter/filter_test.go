package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

type app struct {
	Name     string
	Risk     string
	Business string
}

var apps = []app{
	{Name: "Billing Service", Risk: "high", Business: "finance"},
	{Name: "billing-ui", Risk: "low", Business: "finance"},
	{Name: "Inventory", Risk: "medium", Business: "ops"},
	{Name: "Payroll", Risk: "high", Business: "hr"},
}

func appCategories() []Category[app] {
	return []Category[app]{
		{Key: "name", Title: "Name", Kind: types.FilterSearch, GetItemValue: func(a app) string { return a.Name }},
		{Key: "risk", Title: "Risk", Kind: types.FilterSelect, GetItemValue: func(a app) string { return a.Risk }},
		{Key: "business", Title: "Business service", Kind: types.FilterCheckbox, GetItemValue: func(a app) string { return a.Business }},
	}
}

func names(items []app) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Name
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		values types.FilterValues
		want   []string
	}{
		{
			name:   "no active categories keeps everything",
			values: types.FilterValues{},
			want:   []string{"Billing Service", "billing-ui", "Inventory", "Payroll"},
		},
		{
			name:   "search is case-insensitive substring",
			values: types.FilterValues{"name": {"BILL"}},
			want:   []string{"Billing Service", "billing-ui"},
		},
		{
			name:   "values within a category are ORed",
			values: types.FilterValues{"risk": {"low", "medium"}},
			want:   []string{"billing-ui", "Inventory"},
		},
		{
			name:   "categories are ANDed",
			values: types.FilterValues{"risk": {"high"}, "business": {"finance"}},
			want:   []string{"Billing Service"},
		},
		{
			name:   "select is exact match",
			values: types.FilterValues{"risk": {"hig"}},
			want:   []string{},
		},
		{
			name:   "empty slice is inactive",
			values: types.FilterValues{"risk": {}},
			want:   []string{"Billing Service", "billing-ui", "Inventory", "Payroll"},
		},
		{
			name:   "unknown key is ignored",
			values: types.FilterValues{"retired": {"x"}, "risk": {"medium"}},
			want:   []string{"Inventory"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(apps, appCategories(), tt.values)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestServerFilters(t *testing.T) {
	cats := appCategories()

	t.Run("search becomes like with wildcards", func(t *testing.T) {
		got := ServerFilters(cats, types.FilterValues{"name": {"foo"}})
		assert.Equal(t, []types.Filter{{Field: "name", Operator: types.OpLike, Value: "*foo*"}}, got)
	})

	t.Run("multiple values share a group", func(t *testing.T) {
		got := ServerFilters(cats, types.FilterValues{"risk": {"low", "high"}, "name": {"a"}})
		assert.Equal(t, []types.Filter{
			{Field: "name", Operator: types.OpLike, Value: "*a*"},
			{Field: "risk", Operator: types.OpEqual, Value: "low", Group: "risk"},
			{Field: "risk", Operator: types.OpEqual, Value: "high", Group: "risk"},
		}, got)
	})

	t.Run("server field and custom expression", func(t *testing.T) {
		custom := []Category[app]{
			{Key: "business", Kind: types.FilterSelect, ServerField: "businessService.name"},
			{
				Key:  "tag",
				Kind: types.FilterSelect,
				ToServerExpression: func(values []string) []types.Filter {
					out := make([]types.Filter, len(values))
					for i, v := range values {
						out[i] = types.Filter{Field: "tag.id", Operator: types.OpEqual, Value: v}
					}
					return out
				},
			},
		}
		got := ServerFilters(custom, types.FilterValues{"business": {"ops"}, "tag": {"1", "2"}})
		assert.Equal(t, []types.Filter{
			{Field: "businessService.name", Operator: types.OpEqual, Value: "ops"},
			{Field: "tag.id", Operator: types.OpEqual, Value: "1", Group: "tag"},
			{Field: "tag.id", Operator: types.OpEqual, Value: "2", Group: "tag"},
		}, got)
	})

	t.Run("inactive and unknown categories emit nothing", func(t *testing.T) {
		assert.Empty(t, ServerFilters(cats, types.FilterValues{"risk": nil, "gone": {"x"}}))
	})
}

func TestValidateCategories(t *testing.T) {
	tests := []struct {
		name    string
		cats    []Category[app]
		wantErr error
	}{
		{name: "valid", cats: appCategories()},
		{name: "empty key", cats: []Category[app]{{Kind: types.FilterSearch}}, wantErr: types.ErrInvalidCategoryKey},
		{name: "colon in key", cats: []Category[app]{{Key: "a:b", Kind: types.FilterSearch}}, wantErr: types.ErrInvalidCategoryKey},
		{name: "duplicate key", cats: []Category[app]{{Key: "a", Kind: types.FilterSearch}, {Key: "a", Kind: types.FilterSelect}}, wantErr: types.ErrDuplicateCategory},
		{name: "unknown kind", cats: []Category[app]{{Key: "a", Kind: "range"}}, wantErr: types.ErrUnknownFilterKind},
		{name: "unknown operator", cats: []Category[app]{{Key: "a", Kind: types.FilterSearch, Operator: "contains"}}, wantErr: types.ErrUnknownOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategories(tt.cats)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	values := []types.FilterValues{
		{},
		{"name": {"foo"}},
		{"risk": {"high", "low", "medium"}, "name": {"a:b", "with space", ""}},
		{"business": {"z", "a"}},
	}
	for _, v := range values {
		got := DeserializeValues(SerializeValues(v))
		assert.True(t, v.Equal(got), "round trip of %v gave %v", v, got)
	}
}

func TestDeserializeSkipsMalformed(t *testing.T) {
	q := map[string][]string{URLKey: {"noseparator", ":novalue", "risk:high"}}
	assert.Equal(t, types.FilterValues{"risk": {"high"}}, DeserializeValues(q))
}

func TestState(t *testing.T) {
	h, err := persist.NewHistory("/applications")
	require.NoError(t, err)

	s, err := NewState(Keys(appCategories()), persist.Options[types.FilterValues]{
		PersistTo: persist.StrategyURLParams,
		Location:  h,
		KeyPrefix: "apps",
	})
	require.NoError(t, err)
	assert.False(t, s.HasActive())

	s.SetCategoryValues("risk", []string{"high", "low"})
	s.SetCategoryValues("name", []string{"bill"})
	assert.Equal(t, types.FilterValues{"risk": {"high", "low"}, "name": {"bill"}}, s.Values())
	assert.Equal(t, []string{"name:bill", "risk:high", "risk:low"}, h.Query()["apps:filters"])

	s.SetCategoryValues("risk", nil)
	assert.Equal(t, types.FilterValues{"name": {"bill"}}, s.Values())

	s.ClearAll()
	assert.False(t, s.HasActive())
	assert.Empty(t, h.Query()["apps:filters"])
}

func TestStateIgnoresStaleKeys(t *testing.T) {
	h, err := persist.NewHistory("/applications?filters=retired:x&filters=risk:high")
	require.NoError(t, err)

	s, err := NewState(Keys(appCategories()), persist.Options[types.FilterValues]{
		PersistTo: persist.StrategyURLParams,
		Location:  h,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FilterValues{"risk": {"high"}}, s.Values())
}

func TestExpression(t *testing.T) {
	e, err := Compile(`risk == "high" && business != "hr"`)
	require.NoError(t, err)
	assert.Equal(t, `risk == "high" && business != "hr"`, e.String())

	records := []map[string]any{
		{"name": "a", "risk": "high", "business": "finance"},
		{"name": "b", "risk": "high", "business": "hr"},
		{"name": "c", "risk": "low", "business": "finance"},
	}
	match := Predicate[map[string]any](e)
	var got []string
	for _, r := range records {
		if match(r) {
			got = append(got, r["name"].(string))
		}
	}
	assert.Equal(t, []string{"a"}, got)

	_, err = Compile(`risk ==`)
	assert.Error(t, err)
}
