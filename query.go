package phantom

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/tphakala/go-phantom/internal/api"
)

// Sort orders for list queries.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query builds the query string understood by Phantom list endpoints:
// page, page_size, sort, order, include_expensive and _filter_<field>.
// A page size of 0 asks Phantom for every record in one response.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: make(url.Values)}
}

// Filter adds _filter_<field>=<value>. Strings are double-quoted as Phantom
// requires; numbers and booleans are sent bare.
func (q *Query) Filter(field string, value any) *Query {
	q.values.Set("_filter_"+field, filterValue(value))
	return q
}

// Page selects the zero-based page.
func (q *Query) Page(n int) *Query {
	q.values.Set("page", strconv.Itoa(n))
	return q
}

// PageSize sets the number of records per page.
func (q *Query) PageSize(n int) *Query {
	q.values.Set("page_size", strconv.Itoa(n))
	return q
}

// Sort orders results by field.
func (q *Query) Sort(field, order string) *Query {
	q.values.Set("sort", field)
	q.values.Set("order", order)
	return q
}

// IncludeExpensive asks Phantom to include fields it omits by default.
func (q *Query) IncludeExpensive() *Query {
	q.values.Set("include_expensive", "")
	return q
}

// CreatedBetween restricts results to a create_time range.
func (q *Query) CreatedBetween(r *TimeRange) *Query {
	if r == nil || r.Start.IsZero() || r.End.IsZero() {
		return q
	}
	q.values.Set("_filter_create_time__range",
		fmt.Sprintf("(%q,%q)", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)))
	return q
}

// Values returns the encoded parameters.
func (q *Query) Values() url.Values {
	if q == nil {
		return nil
	}
	return q.values
}

func filterValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	default:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return strconv.Quote(rv.String())
		}
		return fmt.Sprint(val)
	}
}

// newest returns a query for the most recent record.
func newest() *Query {
	return NewQuery().Sort("id", OrderDesc).PageSize(1).IncludeExpensive()
}

// list issues a GET against a collection endpoint and returns the page as-is.
func list[T any](ctx context.Context, t *api.Transport, path string, q *Query, opts []RequestOption) (*Page[T], error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var page Page[T]
	resp, err := t.DoJSON(ctx, reqCfg.request(http.MethodGet, path, q, nil), &page)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "", 0); err != nil {
		return nil, err
	}

	return &page, nil
}
