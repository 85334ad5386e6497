package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trade-signal/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const evaluationSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id           BIGSERIAL   PRIMARY KEY,
    symbol       TEXT        NOT NULL,
    interval     TEXT        NOT NULL,
    bar_time     TIMESTAMPTZ NOT NULL,
    bars         INTEGER     NOT NULL,
    rating       TEXT        NOT NULL,
    confidence   SMALLINT    NOT NULL,
    flags        JSONB       NOT NULL DEFAULT '[]'::jsonb,
    levels       JSONB       NOT NULL DEFAULT '{"computed":false}'::jsonb,
    evaluated_at TIMESTAMPTZ NOT NULL,
    UNIQUE (symbol, interval, bar_time)
);
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations (evaluated_at DESC);
`

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type EvaluationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewEvaluationRepository(pool PgxPool, tracer trace.Tracer) *EvaluationRepository {
	return &EvaluationRepository{pool: pool, tracer: tracer}
}

func (r *EvaluationRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "evaluation-repo.run-migrations")
	defer span.End()

	if _, err := r.pool.Exec(ctx, evaluationSchema); err != nil {
		return fmt.Errorf("create evaluations table: %w", err)
	}
	return nil
}

// InsertEvaluation stores e, replacing any earlier evaluation of the same bar,
// and returns it with its row id.
func (r *EvaluationRepository) InsertEvaluation(ctx context.Context, e domain.Evaluation) (domain.Evaluation, error) {
	_, span := r.tracer.Start(ctx, "evaluation-repo.insert-evaluation")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", e.Symbol), attribute.String("interval", e.Interval))

	flags, err := json.Marshal(e.Result.Flags)
	if err != nil {
		return e, fmt.Errorf("encode flags: %w", err)
	}
	levels, err := json.Marshal(e.Result.Levels)
	if err != nil {
		return e, fmt.Errorf("encode levels: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO evaluations (symbol, interval, bar_time, bars, rating, confidence, flags, levels, evaluated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (symbol, interval, bar_time) DO UPDATE SET
		     bars = EXCLUDED.bars,
		     rating = EXCLUDED.rating,
		     confidence = EXCLUDED.confidence,
		     flags = EXCLUDED.flags,
		     levels = EXCLUDED.levels,
		     evaluated_at = EXCLUDED.evaluated_at
		 RETURNING id`,
		e.Symbol,
		e.Interval,
		e.BarTime.UTC(),
		e.Bars,
		string(e.Result.Rating),
		int16(e.Result.Confidence),
		flags,
		levels,
		e.Result.Timestamp.UTC(),
	).Scan(&e.ID)
	if err != nil {
		return e, fmt.Errorf("insert evaluation: %w", err)
	}
	return e, nil
}

func (r *EvaluationRepository) ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	_, span := r.tracer.Start(ctx, "evaluation-repo.list-evaluations")
	defer span.End()

	args := make([]any, 0, 4)
	var sb strings.Builder
	sb.WriteString(`SELECT id, symbol, interval, bar_time, bars, rating, confidence, flags, levels, evaluated_at
		FROM evaluations
		WHERE 1=1`)

	if filter.Symbol != "" {
		args = append(args, strings.ToUpper(filter.Symbol))
		sb.WriteString(fmt.Sprintf(" AND symbol = $%d", len(args)))
	}
	if filter.Interval != "" {
		args = append(args, filter.Interval)
		sb.WriteString(fmt.Sprintf(" AND interval = $%d", len(args)))
	}
	if filter.Rating != "" {
		args = append(args, string(filter.Rating))
		sb.WriteString(fmt.Sprintf(" AND rating = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY evaluated_at DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Evaluation, 0, limit)
	for rows.Next() {
		var e domain.Evaluation
		var rating string
		var confidence int16
		var flags, levels []byte
		var barTime, evaluatedAt time.Time

		if err := rows.Scan(
			&e.ID,
			&e.Symbol,
			&e.Interval,
			&barTime,
			&e.Bars,
			&rating,
			&confidence,
			&flags,
			&levels,
			&evaluatedAt,
		); err != nil {
			return nil, err
		}
		e.BarTime = barTime.UTC()
		e.Result.Rating = domain.Rating(rating)
		e.Result.Confidence = int(confidence)
		e.Result.Timestamp = evaluatedAt.UTC()
		if err := json.Unmarshal(flags, &e.Result.Flags); err != nil {
			return nil, fmt.Errorf("decode flags for evaluation %d: %w", e.ID, err)
		}
		if err := json.Unmarshal(levels, &e.Result.Levels); err != nil {
			return nil, fmt.Errorf("decode levels for evaluation %d: %w", e.ID, err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
