package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"
)

// ============================================================
// PostgREST verbs: select, insert, update, delete
// ============================================================

// selectRows GETs q and decodes the rows into out. It returns the exact
// total when count is set.
func (c *Client) selectRows(ctx context.Context, q *Query, count bool, out any) (int, error) {
	prefer := ""
	if count {
		prefer = "count=exact"
	}
	resp, err := c.do(ctx, request{method: http.MethodGet, path: q.String(), prefer: prefer})
	if err != nil {
		return 0, err
	}
	if err := decode(resp.body, out); err != nil {
		return 0, resilience.Permanent(fmt.Errorf("decode %s: %w", q.table, err))
	}
	return resp.total, nil
}

// insert POSTs rows and decodes the representation into out.
func (c *Client) insert(ctx context.Context, table string, rows any, out any) error {
	resp, err := c.do(ctx, request{method: http.MethodPost, path: table, body: rows, prefer: "return=representation"})
	if err != nil {
		return err
	}
	if err := decode(resp.body, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s: %w", table, err))
	}
	return nil
}

// update PATCHes the rows matched by q and decodes the representation into out.
func (c *Client) update(ctx context.Context, q *Query, changes map[string]any, out any) error {
	resp, err := c.do(ctx, request{method: http.MethodPatch, path: q.String(), body: changes, prefer: "return=representation"})
	if err != nil {
		return err
	}
	if err := decode(resp.body, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s: %w", q.table, err))
	}
	return nil
}

// remove DELETEs the rows matched by q and reports how many went away.
func (c *Client) remove(ctx context.Context, q *Query) (int, error) {
	resp, err := c.do(ctx, request{method: http.MethodDelete, path: q.String(), prefer: "return=representation"})
	if err != nil {
		return 0, err
	}
	var rows []json.RawMessage
	if err := decode(resp.body, &rows); err != nil {
		return 0, resilience.Permanent(fmt.Errorf("decode %s: %w", q.table, err))
	}
	return len(rows), nil
}

func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

