package db

import (
	"fmt"
	"time"
)

// DecisionRecord is one audited decision outcome.
type DecisionRecord struct {
	ID         int64
	RequestID  string
	ToolCallID string
	Kind       string // 'approval', 'question'
	ToolName   string
	Outcome    string // 'approved', 'denied', 'timed_out', 'answered'
	Reason     string
	DecidedAt  time.Time
}

// AddDecisionRecord appends a decision outcome to the audit log.
func (d *DB) AddDecisionRecord(rec *DecisionRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now()
	}
	result, err := d.conn.Exec(`
		INSERT INTO decision_log (request_id, tool_call_id, kind, tool_name, outcome, reason, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RequestID, rec.ToolCallID, rec.Kind, rec.ToolName, rec.Outcome, rec.Reason, rec.DecidedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("add decision record: %w", err)
	}
	id, _ := result.LastInsertId()
	rec.ID = id
	return nil
}

// ListDecisionRecords retrieves audited decisions, newest first.
func (d *DB) ListDecisionRecords(limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.conn.Query(`
		SELECT id, request_id, tool_call_id, kind, tool_name, outcome, reason, decided_at
		FROM decision_log ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decision records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var decidedAt string
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.ToolCallID, &rec.Kind, &rec.ToolName, &rec.Outcome, &rec.Reason, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan decision record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, decidedAt); err == nil {
			rec.DecidedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision records: %w", err)
	}
	return records, nil
}
