package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablecontrols/internal/labels"
	"github.com/mesh-intelligence/tablecontrols/internal/sqlite"
	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/hub"
	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/tablecontrols"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

const (
	modeClient = "client"
	modeServer = "server"
)

type listFlags struct {
	filters      []string
	clearFilters bool
	sort         string
	page         int
	perPage      int
	selectPage   bool
	server       bool
	hub          string
	where        string
	url          string
	reset        bool
	ephemeral    bool
	json         bool
}

// listOutput is the --json shape of list.
type listOutput struct {
	Dataset   string             `json:"dataset"`
	Mode      string             `json:"mode"`
	Items     []record           `json:"items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"perPage"`
	PageCount int                `json:"pageCount"`
	Sort      *types.SortState   `json:"sort"`
	Filters   types.FilterValues `json:"filters"`
	Selected  []string           `json:"selected"`
	Request   string             `json:"request,omitempty"`
	URL       string             `json:"url,omitempty"`
}

func (a *app) newListCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list <dataset>",
		Short: "List a dataset through its table controls",
		Long: `List shows one page of a dataset. Filter, sort and page settings given as
flags are persisted and apply to later invocations until changed.

Examples:
  tablectl list apps --filter env=prod --filter env=staging --sort replicas:desc
  tablectl list apps --page 2
  tablectl list apps --server --json
  tablectl list apps --hub http://localhost:8080/api/apps
  tablectl list apps --url '/apps?filters=env:prod&pageNumber=2'`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringArrayVar(&f.filters, "filter", nil, "filter as column=value (repeatable; repeated columns OR)")
	fl.BoolVar(&f.clearFilters, "clear-filters", false, "clear every filter before applying --filter")
	fl.StringVar(&f.sort, "sort", "", "sort as column[:asc|desc], or none")
	fl.IntVar(&f.page, "page", 0, "page number")
	fl.IntVar(&f.perPage, "per-page", 0, "items per page")
	fl.BoolVar(&f.selectPage, "select-page", false, "select every row of the page")
	fl.BoolVar(&f.server, "server", false, "filter, sort and page inside the database")
	fl.StringVar(&f.hub, "hub", "", "fetch pages from this hub collection URL instead of the database (implies --server)")
	fl.StringVar(&f.where, "where", "", "expression every row must satisfy, e.g. 'replicas > 2' (client mode)")
	fl.StringVar(&f.url, "url", "", "keep state in this URL instead of storage")
	fl.BoolVar(&f.reset, "reset", false, "forget persisted state before listing")
	fl.BoolVar(&f.ephemeral, "ephemeral", false, "keep state for this invocation only")
	fl.BoolVar(&f.json, "json", false, "print JSON")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, name string, f listFlags) error {
	if f.hub != "" {
		f.server = true
	}
	if f.where != "" && f.server {
		return userErrorf("--where cannot be combined with --server")
	}
	if f.url != "" && f.ephemeral {
		return userErrorf("--url cannot be combined with --ephemeral")
	}
	ds, err := a.dataset(name)
	if err != nil {
		return err
	}
	opts := tableOptions(ds)
	opts.Logger = a.logger
	if f.where != "" {
		expr, err := filter.Compile(f.where)
		if err != nil {
			return userError{err}
		}
		opts.ImplicitPredicates = append(opts.ImplicitPredicates, filter.Predicate[record](expr))
	}

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	var history *persist.History
	switch {
	case f.url != "":
		raw := f.url
		if f.reset {
			raw, _, _ = strings.Cut(raw, "?")
		}
		if history, err = persist.NewHistory(raw); err != nil {
			return userError{err}
		}
		opts.PersistTo = persist.StrategyURLParams
		opts.Location = history
	case f.ephemeral:
		session, err := backend.NewSession()
		if err != nil {
			return err
		}
		defer session.Close()
		opts.PersistTo = persist.StrategySessionStorage
		opts.SessionStorage = session.Storage
		opts.KeyPrefix = name
	default:
		local := backend.LocalStorage()
		if f.reset {
			if err := clearState(local, name); err != nil {
				return err
			}
		}
		opts.PersistTo = persist.StrategyLocalStorage
		opts.LocalStorage = local
		opts.KeyPrefix = name
	}

	state, err := tablecontrols.New(opts)
	if err != nil {
		return userErrorf("dataset %q: %w", name, err)
	}
	if err := applyListFlags(cmd, state, f, ds); err != nil {
		return userError{err}
	}

	dataset := sqlite.NewDataset[record](backend, name)
	out := listOutput{Dataset: name, Mode: modeClient}
	var controls *tablecontrols.Controls[record, string]
	if f.server {
		var fetcher hub.Fetcher[record] = dataset
		if f.hub != "" {
			client, err := hub.NewClient[record](f.hub)
			if err != nil {
				return userError{err}
			}
			fetcher = client
		}
		params := state.RequestParams()
		a.logger.Debug("fetching page", "dataset", name, "query", params.Values().Encode())
		result, err := fetcher.Fetch(cmd.Context(), params)
		if err != nil {
			if errors.Is(err, types.ErrInvalidField) || errors.Is(err, types.ErrUnknownOperator) {
				return userError{err}
			}
			return err
		}
		controls = state.Server(result.Items, result.Total)
		out.Mode = modeServer
		out.Request = params.Values().Encode()
	} else {
		items, err := dataset.All(cmd.Context())
		if err != nil {
			return err
		}
		controls = state.Client(items)
	}

	if f.selectPage {
		controls.BulkSelectorProps().SelectPage()
	}

	q := state.PageQuery()
	out.Items = controls.CurrentPageItems
	if out.Items == nil {
		out.Items = []record{}
	}
	out.Total = controls.TotalItemCount
	out.Page = q.PageNumber
	out.PerPage = q.ItemsPerPage
	out.PageCount = controls.Bounds.PageCount
	out.Sort = state.ActiveSort()
	out.Filters = state.FilterValues()
	out.Selected = state.Selection().SelectedIDs()
	if out.Selected == nil {
		out.Selected = []string{}
	}
	if history != nil {
		out.URL = history.String()
	}

	w := cmd.OutOrStdout()
	if f.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return writeTable(w, ds, controls, out)
}

// applyListFlags changes the table state in the order a user would: filters,
// then sort, then page size and page.
func applyListFlags(cmd *cobra.Command, state *tablecontrols.State[record, string], f listFlags, ds datasetConfig) error {
	if f.clearFilters {
		state.ClearFilters()
	}
	if len(f.filters) > 0 {
		values, err := parseFilterFlags(f.filters, filter.Keys(state.FilterCategories()))
		if err != nil {
			return err
		}
		merged := state.FilterValues()
		for key, selected := range values {
			merged[key] = selected
		}
		state.SetFilterValues(merged)
	}
	if f.sort != "" {
		active, err := parseSortFlag(f.sort, sortableKeys(ds))
		if err != nil {
			return err
		}
		state.SetSort(active)
	}
	flags := cmd.Flags()
	if flags.Changed("per-page") {
		if f.perPage < 1 {
			return errors.New("--per-page must be at least 1")
		}
		state.SetItemsPerPage(f.perPage)
	}
	if flags.Changed("page") {
		state.SetPageNumber(f.page)
	}
	return nil
}

func sortableKeys(ds datasetConfig) []string {
	var keys []string
	for _, c := range ds.Columns {
		if c.Sortable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// clearState removes every key persisted for the dataset.
func clearState(local *sqlite.Storage, name string) error {
	keys, err := local.Keys(persist.PrefixedKey(name, ""))
	if err != nil {
		return fmt.Errorf("list state keys: %w", err)
	}
	for _, key := range keys {
		if err := local.RemoveItem(key); err != nil {
			return fmt.Errorf("remove state %s: %w", key, err)
		}
	}
	return nil
}

func writeTable(w io.Writer, ds datasetConfig, controls *tablecontrols.Controls[record, string], out listOutput) error {
	chips, err := labels.NewCache(0)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{" "}
	for _, c := range ds.Columns {
		title := strings.ToUpper(c.title())
		switch controls.ColumnHeaderProps(c.Key).Direction {
		case types.SortAsc:
			title += " ^"
		case types.SortDesc:
			title += " v"
		}
		header = append(header, title)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, item := range controls.CurrentPageItems {
		mark := " "
		if controls.RowProps(item).Selected {
			mark = "*"
		}
		row := []string{mark}
		for _, c := range ds.Columns {
			text := cellText(item[c.Key])
			if hex := labelColor(c, item); hex != "" {
				text = chips.Render(text, hex)
			}
			row = append(row, text)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b := controls.Bounds
	fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n", b.FirstIndex, b.LastIndex, b.TotalItemCount, out.Page, max(b.PageCount, 1))
	if len(out.Selected) > 0 {
		fmt.Fprintf(w, "%d selected\n", len(out.Selected))
	}
	if out.URL != "" {
		fmt.Fprintf(w, "url: %s\n", out.URL)
	}
	return nil
}
