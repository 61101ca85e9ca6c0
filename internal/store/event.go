package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo over the request event tables.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var llmColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body",
}

var apiColumns = []string{
	"id", "sequence", "timestamp", "request_id", "method", "path", "status",
	"latency_ms", "retried", "success", "error_message",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().
		Insert("llm_request_events").
		Columns(llmColumns[1:]...).
		Values(seqNum, time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, boolInt(data.Success),
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	sel := opts.apply(builder().Select(llmColumns...).From(entsql.Table("llm_request_events")))
	return r.queryLLM(ctx, sel)
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error) {
	sel := builder().Select(llmColumns...).
		From(entsql.Table("llm_request_events")).
		Where(entsql.EQ("id", id))
	events, err := r.queryLLM(ctx, sel)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func (r *eventRepo) queryLLM(ctx context.Context, sel *entsql.Selector) ([]LLMRequestEvent, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		var (
			e  LLMRequestEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
			&e.RequestBody, &e.ResponseBody); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "model")
}

func (r *eventRepo) llmUsage(ctx context.Context, groupBy string) ([]LLMUsage, error) {
	query, args := builder().
		Select(groupBy,
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency")).
		From(entsql.Table("llm_request_events")).
		GroupBy(groupBy).
		OrderBy(groupBy).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			key string
			avg float64
		)
		if err := rows.Scan(&key, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		if groupBy == "model" {
			u.Model = key
		} else {
			u.Purpose = key
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) AppendAPIRequest(ctx context.Context, data APIRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().
		Insert("api_request_events").
		Columns(apiColumns[1:]...).
		Values(seqNum, time.Now().UnixMilli(), data.RequestID, data.Method, data.Path,
			data.Status, data.LatencyMs, boolInt(data.Retried), boolInt(data.Success), data.ErrorMessage).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save API request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAPIEvents(ctx context.Context, opts QueryOpts) ([]APIRequestEvent, error) {
	sel := opts.apply(builder().Select(apiColumns...).From(entsql.Table("api_request_events")))
	return r.queryAPI(ctx, sel)
}

func (r *eventRepo) GetAPIEvent(ctx context.Context, id int) (*APIRequestEvent, error) {
	sel := builder().Select(apiColumns...).
		From(entsql.Table("api_request_events")).
		Where(entsql.EQ("id", id))
	events, err := r.queryAPI(ctx, sel)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func (r *eventRepo) queryAPI(ctx context.Context, sel *entsql.Selector) ([]APIRequestEvent, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query API events: %w", err)
	}
	defer rows.Close()

	var out []APIRequestEvent
	for rows.Next() {
		var (
			e  APIRequestEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.RequestID, &e.Method, &e.Path,
			&e.Status, &e.LatencyMs, &e.Retried, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan API event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) APIUsageByPath(ctx context.Context) ([]APIPathUsage, error) {
	query, args := builder().
		Select("method", "path",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As("SUM(1 - success)", "failures"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency")).
		From(entsql.Table("api_request_events")).
		GroupBy("method", "path").
		OrderBy("path", "method").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query API usage: %w", err)
	}
	defer rows.Close()

	var out []APIPathUsage
	for rows.Next() {
		var (
			u   APIPathUsage
			avg float64
		)
		if err := rows.Scan(&u.Method, &u.Path, &u.Calls, &u.Failures, &avg); err != nil {
			return nil, fmt.Errorf("scan API usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}
