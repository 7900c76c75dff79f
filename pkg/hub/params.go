// Package hub translates table state into request parameters for the hub
// REST service and fetches pages of items with them.
package hub

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/pagination"
	"github.com/mesh-intelligence/tablecontrols/pkg/sorting"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Query parameter names understood by the hub.
const (
	ParamFilter = "filter"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamOffset = "offset"
)

// RequestParams is the server-side shape of a table's state.
type RequestParams struct {
	Filters []types.Filter `json:"filters"`
	Sort    *types.Sort    `json:"sort,omitempty"`
	Page    types.Page     `json:"page"`
}

// Args is the table state BuildRequestParams reads.
type Args[T any] struct {
	Categories       []filter.Category[T]
	FilterValues     types.FilterValues
	Sort             *types.SortState
	HubSortFieldKeys map[string]string
	Page             types.PageQuery

	// ImplicitFilters are always sent after the category filters.
	ImplicitFilters []types.Filter
}

// BuildRequestParams computes hub request parameters from table state. It
// has no side effects and keeps no cache.
func BuildRequestParams[T any](args Args[T]) RequestParams {
	filters := filter.ServerFilters(args.Categories, args.FilterValues)
	filters = append(filters, args.ImplicitFilters...)
	return RequestParams{
		Filters: filters,
		Sort:    sorting.ServerSort(args.Sort, args.HubSortFieldKeys),
		Page:    pagination.ServerPage(args.Page),
	}
}

// Values encodes p as hub query parameters.
func (p RequestParams) Values() url.Values {
	q := url.Values{}
	if expr := FilterExpression(p.Filters); expr != "" {
		q.Set(ParamFilter, expr)
	}
	if p.Sort != nil && p.Sort.Field != "" {
		q.Set(ParamSort, string(p.Sort.Direction)+":"+p.Sort.Field)
	}
	page := types.PageQuery{PageNumber: p.Page.PageNumber, ItemsPerPage: p.Page.ItemsPerPage}.Clamp()
	q.Set(ParamLimit, strconv.Itoa(page.ItemsPerPage))
	q.Set(ParamOffset, strconv.Itoa(page.Offset()))
	return q
}

// FilterExpression renders filters in the hub filter syntax. Ungrouped
// filters are ANDed with ",". Filters sharing a Group are ORed inside
// parentheses; a group on a single field and operator collapses to
// field=(a|b).
func FilterExpression(filters []types.Filter) string {
	var (
		terms  []string
		groups = map[string][]types.Filter{}
		order  []string
	)
	for _, f := range filters {
		if f.Group == "" {
			order = append(order, "")
			terms = append(terms, term(f))
			continue
		}
		if _, ok := groups[f.Group]; !ok {
			order = append(order, f.Group)
			terms = append(terms, "")
		}
		groups[f.Group] = append(groups[f.Group], f)
	}
	for i, g := range order {
		if g != "" {
			terms[i] = groupTerm(groups[g])
		}
	}
	return strings.Join(terms, ",")
}

func term(f types.Filter) string {
	return f.Field + f.Operator.Symbol() + quote(f.Value)
}

func groupTerm(filters []types.Filter) string {
	if len(filters) == 1 {
		return term(filters[0])
	}
	first := filters[0]
	sameShape := true
	for _, f := range filters[1:] {
		if f.Field != first.Field || f.Operator != first.Operator {
			sameShape = false
			break
		}
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		if sameShape {
			parts[i] = quote(f.Value)
		} else {
			parts[i] = term(f)
		}
	}
	joined := "(" + strings.Join(parts, "|") + ")"
	if sameShape {
		return first.Field + first.Operator.Symbol() + joined
	}
	return joined
}

// quote leaves numbers and booleans bare and quotes everything else.
func quote(v string) string {
	if v == "true" || v == "false" {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return strconv.Quote(v)
}
