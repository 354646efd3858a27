package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DatabaseClient talks to the platform's row store (PostgREST).
type DatabaseClient struct {
	client *Client
}

// From starts a query against a table.
func (d *DatabaseClient) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  d.client,
		table:   table,
		method:  "GET",
		columns: "*",
		headers: make(map[string]string),
	}
}

// QueryBuilder accumulates a single row-store request: verb, filters,
// ordering, pagination and auth, then executes it.
type QueryBuilder struct {
	client  *Client
	table   string
	method  string
	columns string
	filters []string
	orders  []string
	limit   *int
	offset  *int
	body    []byte
	headers map[string]string
	bearer  string
	encErr  error
}

// Select sets the columns (or embedded resources) to return.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = "GET"
	q.columns = columns
	return q
}

// Insert posts one or more rows, returning the created representation.
func (q *QueryBuilder) Insert(data any) *QueryBuilder {
	q.method = "POST"
	q.body, q.encErr = json.Marshal(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Update patches the rows matched by the filters.
func (q *QueryBuilder) Update(data any) *QueryBuilder {
	q.method = "PATCH"
	q.body, q.encErr = json.Marshal(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Upsert inserts rows, merging on conflict with onConflict columns.
func (q *QueryBuilder) Upsert(data any, onConflict string) *QueryBuilder {
	q.method = "POST"
	q.body, q.encErr = json.Marshal(data)
	q.headers["Prefer"] = "return=representation,resolution=merge-duplicates"
	if onConflict != "" {
		q.headers["on-conflict"] = onConflict
	}
	return q
}

// Delete removes the rows matched by the filters, returning what was removed
// so callers can detect "nothing matched".
func (q *QueryBuilder) Delete() *QueryBuilder {
	q.method = "DELETE"
	q.headers["Prefer"] = "return=representation"
	return q
}

// Eq filters on column equality.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Order sorts by column. desc selects descending order.
func (q *QueryBuilder) Order(column string, desc bool) *QueryBuilder {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of rows returned.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = &n
	return q
}

// Offset skips n rows.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = &n
	return q
}

// Single requests exactly one object instead of an array. Zero matching rows
// become a PGRST116 error.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// WithToken runs the query as the given user so row-level security applies.
func (q *QueryBuilder) WithToken(token string) *QueryBuilder {
	q.bearer = token
	return q
}

// Execute runs the query and returns the raw response body.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	resp, err := q.do(ctx)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// ExecuteInto runs the query and decodes the response into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest any) error {
	data, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("supabase: decoding %s response: %w", q.table, err)
	}
	return nil
}

// ExecuteCount runs the query head-only with an exact count and returns the
// total number of matching rows, parsed from the Content-Range header.
func (q *QueryBuilder) ExecuteCount(ctx context.Context) (int64, error) {
	q.method = "HEAD"
	q.headers["Prefer"] = appendPrefer(q.headers["Prefer"], "count=exact")

	resp, err := q.do(ctx)
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.header.Get("Content-Range"))
}

func (q *QueryBuilder) do(ctx context.Context) (*response, error) {
	if q.encErr != nil {
		return nil, fmt.Errorf("supabase: encoding %s payload: %w", q.table, q.encErr)
	}

	resp, err := q.client.request(ctx, q.method, q.buildURL(), q.body, q.headers, q.bearer)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, parseError(resp.body, resp.status)
	}
	return resp, nil
}

func (q *QueryBuilder) buildURL() string {
	u := q.client.restURL + "/" + url.PathEscape(q.table)

	params := make([]string, 0, len(q.filters)+4)
	if q.method == "GET" || q.method == "HEAD" {
		params = append(params, "select="+url.QueryEscape(q.columns))
	}
	params = append(params, q.filters...)
	if len(q.orders) > 0 {
		params = append(params, "order="+strings.Join(q.orders, ","))
	}
	if q.limit != nil {
		params = append(params, fmt.Sprintf("limit=%d", *q.limit))
	}
	if q.offset != nil {
		params = append(params, fmt.Sprintf("offset=%d", *q.offset))
	}

	if len(params) > 0 {
		u += "?" + strings.Join(params, "&")
	}
	return u
}

// parseContentRangeTotal extracts the total from a PostgREST Content-Range
// value such as "0-9/42" or "*/0".
func parseContentRangeTotal(cr string) (int64, error) {
	_, total, found := strings.Cut(cr, "/")
	if !found || total == "" || total == "*" {
		return 0, fmt.Errorf("supabase: missing count in Content-Range %q", cr)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supabase: bad count in Content-Range %q: %w", cr, err)
	}
	return n, nil
}

func appendPrefer(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "," + addition
}
