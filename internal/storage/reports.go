package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plano/internal"
)

func (d *DB) SaveReport(planID int, reportName, summary string, dataUsed []internal.ActionItem) (internal.SavedReport, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.SavedReport{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := planExists(tx, planID); err != nil {
		return internal.SavedReport{}, err
	}
	if dataUsed == nil {
		dataUsed = []internal.ActionItem{}
	}
	dataJSON, err := json.Marshal(dataUsed)
	if err != nil {
		return internal.SavedReport{}, err
	}

	rep := internal.SavedReport{
		UID:            uuid.NewString(),
		PlanID:         planID,
		ReportName:     reportName,
		SummaryContent: summary,
		DataUsed:       dataUsed,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) + 1 FROM reports`).Scan(&rep.ID); err != nil {
		return internal.SavedReport{}, err
	}
	if _, err := tx.Exec(`
INSERT INTO reports (id, uid, planId, reportName, summaryContent, dataUsedJson, generatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rep.ID, rep.UID, rep.PlanID, rep.ReportName, rep.SummaryContent, string(dataJSON), rep.GeneratedAt); err != nil {
		return internal.SavedReport{}, err
	}
	return rep, tx.Commit()
}

func (d *DB) ListReports() ([]internal.SavedReport, error) {
	rows, err := d.conn.Query(`
SELECT id, uid, planId, reportName, summaryContent, dataUsedJson, generatedAt
FROM reports ORDER BY generatedAt DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SavedReport
	for rows.Next() {
		var rep internal.SavedReport
		var dataJSON string
		if err := rows.Scan(&rep.ID, &rep.UID, &rep.PlanID, &rep.ReportName, &rep.SummaryContent, &dataJSON, &rep.GeneratedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dataJSON), &rep.DataUsed); err != nil {
			return nil, fmt.Errorf("report %s: data used: %w", rep.UID, err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (d *DB) InsertImportRun(run internal.ImportRun) error {
	_, err := d.conn.Exec(`
INSERT INTO importRuns (traceId, planId, emailId, fileName, source, status, message, records, skipped, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.PlanID, run.EmailID, run.FileName, run.Source, run.Status, run.Message, run.Records, run.Skipped, run.DurationMs)
	return err
}

func (d *DB) ListImportRuns(limit int) ([]internal.ImportRun, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, planId, emailId, fileName, source, status, message, records, skipped, durationMs, createdAt
FROM importRuns ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRun
	for rows.Next() {
		var run internal.ImportRun
		if err := rows.Scan(&run.ID, &run.TraceID, &run.PlanID, &run.EmailID, &run.FileName, &run.Source,
			&run.Status, &run.Message, &run.Records, &run.Skipped, &run.DurationMs, &run.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
