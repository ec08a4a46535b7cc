// internal/query/executor.go
package query

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"portalcore/pkg/authz"
	"portalcore/pkg/db"
)

// Result is the outcome of a successful execution. Truncation at the
// template's row cap is informational, not a failure.
type Result struct {
	TemplateID string           `json:"templateId"`
	Rows       []map[string]any `json:"rows"`
	Truncated  bool             `json:"truncated"`
}

// Runner is what the HTTP layer programs against; Executor implements it
// on Postgres and tests substitute their own.
type Runner interface {
	Execute(ctx context.Context, templateID string, raw map[string]any, p *authz.Principal) (*Result, error)
}

type Executor struct {
	reg         *Registry
	pool        *pgxpool.Pool
	stmtTimeout time.Duration
	log         *zap.SugaredLogger
}

func NewExecutor(reg *Registry, pool *pgxpool.Pool, stmtTimeout time.Duration, log *zap.SugaredLogger) *Executor {
	return &Executor{reg: reg, pool: pool, stmtTimeout: stmtTimeout, log: log}
}

// Execute validates and runs a template inside a tenant-bound transaction.
// The transaction carries a local statement timeout so a slow template
// cannot hold a pooled connection indefinitely.
func (e *Executor) Execute(ctx context.Context, templateID string, raw map[string]any, p *authz.Principal) (*Result, error) {
	tpl, args, verr := e.reg.Validate(templateID, raw, p)
	if verr != nil {
		if verr.Reason == ReasonInjection {
			injectionRejections.WithLabelValues(templateID).Inc()
			// Offending value deliberately left out of the log line.
			e.log.Warnw("injection signal rejected", "template", templateID, "subject_id", p.SubjectID, "parameter", verr.Parameter)
		}
		executions.WithLabelValues(templateID, "rejected").Inc()
		return nil, verr
	}

	if e.pool == nil {
		executions.WithLabelValues(tpl.ID, "error").Inc()
		return nil, fmt.Errorf("query store unavailable")
	}

	res := &Result{TemplateID: tpl.ID, Rows: []map[string]any{}}
	err := db.WithTenant(ctx, e.pool, p.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		ms := strconv.FormatInt(e.stmtTimeout.Milliseconds(), 10)
		if _, err := tx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", ms); err != nil {
			return fmt.Errorf("set statement timeout: %w", err)
		}
		rows, err := tx.Query(ctx, tpl.Body, args...)
		if err != nil {
			return fmt.Errorf("run template %s: %w", tpl.ID, err)
		}
		res.Rows, res.Truncated, err = collectRows(rows, tpl.MaxRows)
		return err
	})
	if err != nil {
		executions.WithLabelValues(tpl.ID, "error").Inc()
		return nil, err
	}
	executions.WithLabelValues(tpl.ID, "ok").Inc()
	return res, nil
}

// collectRows drains rows into column-keyed maps, stopping at the cap. The
// row after the cap is probed but not read, so Truncated means the result
// was actually cut off, never that it landed exactly on the cap.
func collectRows(rows pgx.Rows, maxRows int) ([]map[string]any, bool, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()
	out := []map[string]any{}
	truncated := false
	for rows.Next() {
		if len(out) >= maxRows {
			truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, false, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, truncated, rows.Err()
}
