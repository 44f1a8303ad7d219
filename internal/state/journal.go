package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// ErrNotFound is returned when a cycle does not exist.
var ErrNotFound = errors.New("not found")

// Cycle status values stored in the journal.
const (
	CycleCompleted = "completed"
	CycleFailed    = "failed"
)

// CycleSummary is one row of the journal listing.
type CycleSummary struct {
	ID         string
	Request    string
	Process    models.Process
	PlanSource models.PlanSource
	Status     string
	Tasks      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal records finished cycles.
type Journal struct {
	db *DB
}

// OpenJournal opens and migrates the journal at path (empty = in memory).
func OpenJournal(path string) (*Journal, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// DB returns the underlying database.
func (j *Journal) DB() *DB { return j.db }

// Close closes the journal.
func (j *Journal) Close() error { return j.db.Close() }

func cycleStatus(out *models.CrewOutput) string {
	if out.Succeeded() {
		return CycleCompleted
	}
	return CycleFailed
}

// RecordCycle stores a cycle and its task outcomes in one transaction.
// Recording the same cycle twice replaces the earlier entry.
func (j *Journal) RecordCycle(ctx context.Context, out *models.CrewOutput) error {
	if out == nil {
		return nil
	}

	plan, err := json.Marshal(out.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	j.db.mu.Lock()
	defer j.db.mu.Unlock()

	tx, err := j.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE id = ?`, out.CycleID); err != nil {
		return fmt.Errorf("replace cycle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles (id, request, process, plan_source, plan, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		out.CycleID, out.Request, string(out.Process), string(out.PlanSource), string(plan),
		cycleStatus(out), formatTime(out.StartedAt), formatTime(out.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for i, t := range out.Tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_outcomes (cycle_id, position, task_id, agent_id, status, output, attempts, human_feedback, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			out.CycleID, i, t.TaskID, t.AgentID, string(t.Status), t.Output, t.Attempts,
			t.HumanFeedback, t.Error, t.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert task outcome %s: %w", t.TaskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle: %w", err)
	}
	return nil
}

// ListCycles returns the most recent cycles first. limit <= 0 means all.
func (j *Journal) ListCycles(ctx context.Context, limit int) ([]CycleSummary, error) {
	j.db.mu.RLock()
	defer j.db.mu.RUnlock()

	query := `
		SELECT c.id, c.request, c.process, c.plan_source, c.status, c.started_at, c.finished_at,
			(SELECT COUNT(*) FROM task_outcomes t WHERE t.cycle_id = c.id)
		FROM cycles c
		ORDER BY c.started_at DESC, c.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []CycleSummary
	for rows.Next() {
		var s CycleSummary
		var process, source, started string
		var finished sql.NullString
		if err := rows.Scan(&s.ID, &s.Request, &process, &source, &s.Status, &started, &finished, &s.Tasks); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		s.Process = models.Process(process)
		s.PlanSource = models.PlanSource(source)
		s.StartedAt, _ = parseTime(started)
		s.FinishedAt = parseNullableTime(finished)
		cycles = append(cycles, s)
	}
	return cycles, rows.Err()
}

// GetCycle loads a full cycle with its task outcomes in plan order.
func (j *Journal) GetCycle(ctx context.Context, id string) (*models.CrewOutput, error) {
	j.db.mu.RLock()
	defer j.db.mu.RUnlock()

	out := &models.CrewOutput{CycleID: id}
	var process, source, plan, started string
	var finished sql.NullString

	row := j.db.conn.QueryRowContext(ctx, `
		SELECT request, process, plan_source, plan, started_at, finished_at
		FROM cycles WHERE id = ?`, id)
	if err := row.Scan(&out.Request, &process, &source, &plan, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cycle %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get cycle: %w", err)
	}
	out.Process = models.Process(process)
	out.PlanSource = models.PlanSource(source)
	out.StartedAt, _ = parseTime(started)
	out.FinishedAt = parseNullableTime(finished)
	if err := json.Unmarshal([]byte(plan), &out.Plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	rows, err := j.db.conn.QueryContext(ctx, `
		SELECT task_id, agent_id, status, output, attempts, human_feedback, error, duration_ms
		FROM task_outcomes WHERE cycle_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get task outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TaskOutput
		var agent, output, feedback, errText sql.NullString
		var status string
		var durationMS int64
		if err := rows.Scan(&t.TaskID, &agent, &status, &output, &t.Attempts, &feedback, &errText, &durationMS); err != nil {
			return nil, fmt.Errorf("scan task outcome: %w", err)
		}
		t.AgentID = agent.String
		t.Status = models.TaskStatus(status)
		t.Output = output.String
		t.HumanFeedback = feedback.String
		t.Error = errText.String
		t.Duration = time.Duration(durationMS) * time.Millisecond
		out.Tasks = append(out.Tasks, t)
	}
	return out, rows.Err()
}
