package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tablecontrols/pkg/hub"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// fieldPattern limits hub fields to JSON object paths such as "owner.name".
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Dataset is a named collection of JSON records. It implements
// hub.Fetcher, evaluating filters, sort and page with SQL.
type Dataset[T any] struct {
	backend *Backend
	name    string
}

var _ hub.Fetcher[map[string]any] = (*Dataset[map[string]any])(nil)

// NewDataset returns the dataset called name.
func NewDataset[T any](b *Backend, name string) *Dataset[T] {
	return &Dataset[T]{backend: b, name: name}
}

// Name returns the dataset name.
func (d *Dataset[T]) Name() string {
	return d.name
}

// Replace swaps the contents of the dataset for items, keeping their order.
func (d *Dataset[T]) Replace(ctx context.Context, items []T) error {
	records := make([]json.RawMessage, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		records[i] = data
	}
	return d.ReplaceRecords(ctx, records)
}

// ReplaceRecords swaps the contents of the dataset for raw JSON records.
func (d *Dataset[T]) ReplaceRecords(ctx context.Context, records []json.RawMessage) error {
	return d.backend.write(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset = ?`, d.name); err != nil {
			return fmt.Errorf("clear dataset %s: %w", d.name, err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_rows (dataset, ordinal, data) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, d.name, i, string(rec)); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// Records returns the raw records in insertion order.
func (d *Dataset[T]) Records(ctx context.Context) ([]json.RawMessage, error) {
	var out []json.RawMessage
	err := d.backend.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT data FROM dataset_rows WHERE dataset = ? ORDER BY ordinal`, d.name)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return err
			}
			out = append(out, json.RawMessage(data))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", d.name, err)
	}
	return out, nil
}

// All decodes every record in insertion order.
func (d *Dataset[T]) All(ctx context.Context) ([]T, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](records)
}

// Fetch returns the page of records described by params and the number of
// records matching its filters.
func (d *Dataset[T]) Fetch(ctx context.Context, params hub.RequestParams) (hub.Result[T], error) {
	where, args, err := whereClause(params.Filters)
	if err != nil {
		return hub.Result[T]{}, err
	}
	order, orderArgs, err := orderClause(params.Sort)
	if err != nil {
		return hub.Result[T]{}, err
	}
	page := types.PageQuery{PageNumber: params.Page.PageNumber, ItemsPerPage: params.Page.ItemsPerPage}.Clamp()

	var (
		total   int
		records []json.RawMessage
	)
	err = d.backend.read(func(db *sql.DB) error {
		countArgs := append([]any{d.name}, args...)
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dataset_rows WHERE dataset = ?`+where, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count rows: %w", err)
		}

		query := `SELECT data FROM dataset_rows WHERE dataset = ?` + where + order + ` LIMIT ? OFFSET ?`
		queryArgs := make([]any, 0, len(countArgs)+len(orderArgs)+2)
		queryArgs = append(queryArgs, countArgs...)
		queryArgs = append(queryArgs, orderArgs...)
		queryArgs = append(queryArgs, page.ItemsPerPage, page.Offset())
		rows, err := db.QueryContext(ctx, query, queryArgs...)
		if err != nil {
			return fmt.Errorf("query rows: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			records = append(records, json.RawMessage(data))
		}
		return rows.Err()
	})
	if err != nil {
		return hub.Result[T]{}, fmt.Errorf("fetch dataset %s: %w", d.name, err)
	}

	items, err := decodeAll[T](records)
	if err != nil {
		return hub.Result[T]{}, err
	}
	return hub.Result[T]{Items: items, Total: total}, nil
}

func decodeAll[T any](records []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, rec := range records {
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// whereClause renders filters as " AND ..." conditions. Filters sharing a
// Group form one parenthesized OR.
func whereClause(filters []types.Filter) (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	for _, term := range groupFilters(filters) {
		parts := make([]string, len(term))
		for i, f := range term {
			cond, condArgs, err := condition(f)
			if err != nil {
				return "", nil, err
			}
			parts[i] = cond
			args = append(args, condArgs...)
		}
		b.WriteString(" AND ")
		if len(parts) == 1 {
			b.WriteString(parts[0])
		} else {
			b.WriteString("(" + strings.Join(parts, " OR ") + ")")
		}
	}
	return b.String(), args, nil
}

// groupFilters returns the AND terms of filters. Each term lists the
// filters ORed within it; a group sits where its first member appeared.
func groupFilters(filters []types.Filter) [][]types.Filter {
	var terms [][]types.Filter
	index := map[string]int{}
	for _, f := range filters {
		if f.Group == "" {
			terms = append(terms, []types.Filter{f})
			continue
		}
		if i, ok := index[f.Group]; ok {
			terms[i] = append(terms[i], f)
			continue
		}
		index[f.Group] = len(terms)
		terms = append(terms, []types.Filter{f})
	}
	return terms
}

func condition(f types.Filter) (string, []any, error) {
	if !fieldPattern.MatchString(f.Field) {
		return "", nil, fmt.Errorf("%w: %q", types.ErrInvalidField, f.Field)
	}
	path := "$." + f.Field
	switch f.Operator {
	case types.OpLike:
		return foldFunc + `(json_extract(data, ?)) LIKE ? ESCAPE '\'`, []any{path, likePattern(strings.ToLower(f.Value))}, nil
	case types.OpEqual, types.OpNotEqual, types.OpGreater, types.OpGreaterEqual, types.OpLess, types.OpLessEqual:
		return "json_extract(data, ?) " + string(f.Operator) + " ?", []any{path, sqlValue(f.Value)}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", types.ErrUnknownOperator, string(f.Operator))
	}
}

func orderClause(sort *types.Sort) (string, []any, error) {
	if sort == nil {
		return " ORDER BY ordinal", nil, nil
	}
	if !fieldPattern.MatchString(sort.Field) {
		return "", nil, fmt.Errorf("%w: %q", types.ErrInvalidField, sort.Field)
	}
	direction := "ASC"
	if sort.Direction == types.SortDesc {
		direction = "DESC"
	}
	return " ORDER BY json_extract(data, ?) COLLATE " + textCollation + " " + direction + ", ordinal", []any{"$." + sort.Field}, nil
}

// likePattern turns a hub wildcard pattern into a LIKE pattern: "*" matches
// any run of characters and LIKE metacharacters are escaped.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "*", "%")
	return r.Replace(v)
}

// sqlValue binds numbers and booleans with their JSON types so they compare
// equal to json_extract results.
func sqlValue(v string) any {
	switch v {
	case "true":
		return 1
	case "false":
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
