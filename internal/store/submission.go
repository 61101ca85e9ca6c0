package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type submissionRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var submissionColumns = []string{
	"id", "sequence", "timestamp", "session_id", "assessment_id",
	"answered", "total", "advisory_correct", "success", "error_message",
}

func (r *submissionRepo) Record(ctx context.Context, rec SubmissionRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := builder().
		Insert("submissions").
		Columns(submissionColumns[1:]...).
		Values(seqNum, ts.UnixMilli(), rec.SessionID, rec.AssessmentID,
			rec.Answered, rec.Total, rec.AdvisoryCorrect, boolInt(rec.Success), rec.ErrorMessage).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (r *submissionRepo) List(ctx context.Context, opts QueryOpts) ([]SubmissionRecord, error) {
	sel := opts.apply(builder().Select(submissionColumns...).From(entsql.Table("submissions")))
	return r.query(ctx, sel)
}

func (r *submissionRepo) LatestSuccessful(ctx context.Context, assessmentID int) (*SubmissionRecord, error) {
	sel := builder().Select(submissionColumns...).
		From(entsql.Table("submissions")).
		Where(entsql.And(entsql.EQ("assessment_id", assessmentID), entsql.EQ("success", 1))).
		OrderBy(entsql.Desc("sequence")).
		Limit(1)
	recs, err := r.query(ctx, sel)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (r *submissionRepo) query(ctx context.Context, sel *entsql.Selector) ([]SubmissionRecord, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []SubmissionRecord
	for rows.Next() {
		var (
			rec SubmissionRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.AssessmentID,
			&rec.Answered, &rec.Total, &rec.AdvisoryCorrect, &rec.Success, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}
