package request

import (
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Parameter names consumed from the request map. The effective key is
// "<widgetID>_<name>".
const (
	ParamOrder  = "order"
	ParamDir    = "dir"
	ParamLimit  = "limit"
	ParamPage   = "page"
	ParamIDs    = "ids"
	ParamAction = "action"
	ParamBulk   = "bulk"
	ParamFilter = "filter"
	ParamSearch = "search"
	ParamMonth  = "month"
	ParamYear   = "year"
	ParamWeek   = "week"
	ParamFrom   = "from"
	ParamTo     = "to"
)

// Sort directions.
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

const (
	filterPairSeparator  = "|"
	filterValueSeparator = ":"
)

// Params is the raw request parameter map, typically url.Values.
type Params = url.Values

// Defaults supplies fallbacks for values missing from the request.
type Defaults struct {
	OrderField string
	OrderDir   string
	Limit      int
	MaxLimit   int
	Now        func() time.Time
}

// DefaultLimit is used when neither the request nor Defaults specify one.
const DefaultLimit = 20

// DefaultMaxLimit caps the page size a request may ask for.
const DefaultMaxLimit = 500

func (d Defaults) normalized() Defaults {
	if d.Limit <= 0 {
		d.Limit = DefaultLimit
	}
	if d.MaxLimit <= 0 {
		d.MaxLimit = DefaultMaxLimit
	}
	if d.Limit > d.MaxLimit {
		d.Limit = d.MaxLimit
	}
	if d.OrderDir == "" {
		d.OrderDir = DirAsc
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Context is the request-scoped widget state. It is read-only after Derive,
// except for MarkRefetch.
type Context struct {
	WidgetID      string
	OrderField    string
	OrderDir      string
	Limit         int
	Page          int
	SelectedIDs   []string
	Filters       map[string]string
	Search        string
	PendingAction string
	PendingBulk   string
	Period        Period

	refetch bool
}

// Key returns the namespaced parameter key for name.
func Key(widgetID, name string) string {
	if widgetID == "" {
		return name
	}
	return widgetID + "_" + name
}

// Derive builds a Context for widgetID from params.
func Derive(widgetID string, params Params, defaults Defaults) *Context {
	defaults = defaults.normalized()
	get := func(name string) string {
		return strings.TrimSpace(params.Get(Key(widgetID, name)))
	}

	ctx := &Context{
		WidgetID:      widgetID,
		OrderField:    get(ParamOrder),
		OrderDir:      normalizeDir(get(ParamDir), defaults.OrderDir),
		Limit:         clampInt(parsePositive(get(ParamLimit), defaults.Limit), 1, defaults.MaxLimit),
		Page:          parsePositive(get(ParamPage), 1),
		SelectedIDs:   parseIDs(params[Key(widgetID, ParamIDs)]),
		Filters:       ParseFilters(get(ParamFilter)),
		Search:        get(ParamSearch),
		PendingAction: get(ParamAction),
		PendingBulk:   get(ParamBulk),
	}
	if ctx.OrderField == "" {
		ctx.OrderField = defaults.OrderField
	}
	ctx.Period = ParsePeriod(
		get(ParamMonth), get(ParamYear), get(ParamWeek), get(ParamFrom), get(ParamTo),
		defaults.Now(),
	)
	return ctx
}

// Offset is the zero-based index of the first row of the current page. It
// saturates at math.MaxInt instead of wrapping, so a page far past the end
// still selects no rows.
func (c *Context) Offset() int {
	if c.Page <= 1 || c.Limit <= 0 {
		return 0
	}
	if c.Page-1 > math.MaxInt/c.Limit {
		return math.MaxInt
	}
	return (c.Page - 1) * c.Limit
}

// Filter returns the active value for name.
func (c *Context) Filter(name string) (string, bool) {
	if c == nil || c.Filters == nil {
		return "", false
	}
	value, ok := c.Filters[name]
	return value, ok
}

// Selected reports whether id is part of the selection.
func (c *Context) Selected(id string) bool {
	for _, candidate := range c.SelectedIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// MarkRefetch flags that rows must be fetched again after a side effect.
func (c *Context) MarkRefetch() { c.refetch = true }

// NeedsRefetch reports whether MarkRefetch was called.
func (c *Context) NeedsRefetch() bool { return c.refetch }

// WithFilter returns a copy with filter name set to value. An empty value
// removes the filter.
func (c *Context) WithFilter(name, value string) *Context {
	clone := c.clone()
	if value == "" {
		delete(clone.Filters, name)
	} else {
		clone.Filters[name] = value
	}
	clone.Page = 1
	return clone
}

// WithPage returns a copy pointing at page.
func (c *Context) WithPage(page int) *Context {
	clone := c.clone()
	if page < 1 {
		page = 1
	}
	clone.Page = page
	return clone
}

// WithOrder returns a copy sorted by field in dir.
func (c *Context) WithOrder(field, dir string) *Context {
	clone := c.clone()
	clone.OrderField = field
	clone.OrderDir = normalizeDir(dir, DirAsc)
	return clone
}

func (c *Context) clone() *Context {
	clone := *c
	clone.SelectedIDs = append([]string(nil), c.SelectedIDs...)
	clone.Filters = make(map[string]string, len(c.Filters))
	for k, v := range c.Filters {
		clone.Filters[k] = v
	}
	clone.refetch = false
	return &clone
}

// Encode renders the navigational state (order, paging, filters, search) as
// namespaced query parameters. Selection and pending actions are not carried
// over so links never replay a side effect.
func (c *Context) Encode() url.Values {
	values := url.Values{}
	set := func(name, value string) {
		if value != "" {
			values.Set(Key(c.WidgetID, name), value)
		}
	}
	set(ParamOrder, c.OrderField)
	if c.OrderField != "" {
		set(ParamDir, c.OrderDir)
	}
	set(ParamLimit, strconv.Itoa(c.Limit))
	set(ParamPage, strconv.Itoa(c.Page))
	set(ParamFilter, EncodeFilters(c.Filters))
	set(ParamSearch, c.Search)
	return values
}

// ParseFilters decodes a serialised "name:value|name:value" payload. Entries
// without a separator or with an empty name are ignored; later duplicates win.
func ParseFilters(raw string) map[string]string {
	filters := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return filters
	}
	for _, pair := range strings.Split(raw, filterPairSeparator) {
		name, value, ok := strings.Cut(pair, filterValueSeparator)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		filters[name] = strings.TrimSpace(value)
	}
	return filters
}

// EncodeFilters is the inverse of ParseFilters with keys in sorted order.
func EncodeFilters(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+filterValueSeparator+filters[name])
	}
	return strings.Join(pairs, filterPairSeparator)
}

func parseIDs(raw []string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, entry := range raw {
		for _, id := range strings.Split(entry, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func normalizeDir(raw, fallback string) string {
	switch strings.ToLower(raw) {
	case DirAsc:
		return DirAsc
	case DirDesc:
		return DirDesc
	}
	if strings.ToLower(fallback) == DirDesc {
		return DirDesc
	}
	return DirAsc
}

func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
