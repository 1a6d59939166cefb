package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"plano/internal"
)

// Repository is the plan store used by the CLI, the importer and the mail
// intake.
type Repository interface {
	CreatePlan(data internal.NewPlan, items []internal.ActionRecord) (internal.Plan, error)
	GetPlan(id int) (internal.Plan, error)
	ListPlans() ([]internal.Plan, error)
	UpdatePlan(plan internal.Plan) (internal.Plan, error)
	DeletePlan(id int) error

	ListActionItems(planID int) ([]internal.ActionItem, error)
	AddActionItem(planID int, item internal.ActionRecord) (internal.ActionItem, error)
	AddActionItemsBatch(planID int, items []internal.ActionRecord) (internal.Plan, error)
	UpdateActionItem(planID int, item internal.ActionItem) (internal.ActionItem, error)
	DeleteActionItem(planID, itemID int) error

	SaveReport(planID int, reportName, summary string, dataUsed []internal.ActionItem) (internal.SavedReport, error)
	ListReports() ([]internal.SavedReport, error)
}

var _ Repository = (*DB)(nil)

// PlanCode is the display code of a plan id.
func PlanCode(id int) string {
	return fmt.Sprintf("ALU-%03d", id)
}

const planColumns = `id, planCode, clientName, planName, emissionDate, conclusionDate, reason, ownerName, status`

const itemColumns = `planId, id, title, mitigationAction, departmentsJson, owner, dueDate,
  strategicPillar, origin, evidence, verification, status, type, priority, tagsJson`

type rowScanner interface {
	Scan(dest ...any) error
}

func (d *DB) CreatePlan(data internal.NewPlan, items []internal.ActionRecord) (internal.Plan, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.Plan{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) + 1 FROM plans`).Scan(&id); err != nil {
		return internal.Plan{}, err
	}
	if _, err := tx.Exec(`
INSERT INTO plans (id, planCode, clientName, planName, emissionDate, reason, ownerName, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, id, PlanCode(id), data.ClientName, data.PlanName, data.EmissionDate, string(data.Reason), data.OwnerName, string(internal.PlanEmAndamento)); err != nil {
		return internal.Plan{}, err
	}
	if _, err := insertItems(tx, id, items); err != nil {
		return internal.Plan{}, err
	}
	if err := tx.Commit(); err != nil {
		return internal.Plan{}, err
	}
	return d.GetPlan(id)
}

func (d *DB) GetPlan(id int) (internal.Plan, error) {
	plan, err := scanPlan(d.conn.QueryRow(`SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return internal.Plan{}, fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return internal.Plan{}, err
	}
	plan.ActionItems, err = d.ListActionItems(id)
	if err != nil {
		return internal.Plan{}, err
	}
	return plan, nil
}

func (d *DB) ListPlans() ([]internal.Plan, error) {
	rows, err := d.conn.Query(`SELECT ` + planColumns + ` FROM plans ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	var plans []internal.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	items, err := d.queryItems(`SELECT ` + itemColumns + ` FROM actionItems ORDER BY planId, id`)
	if err != nil {
		return nil, err
	}
	byPlan := map[int][]internal.ActionItem{}
	for _, it := range items {
		byPlan[it.planID] = append(byPlan[it.planID], it.ActionItem)
	}
	for i := range plans {
		plans[i].ActionItems = byPlan[plans[i].ID]
		if plans[i].ActionItems == nil {
			plans[i].ActionItems = []internal.ActionItem{}
		}
	}
	return plans, nil
}

// UpdatePlan replaces the plan header and its action items. Items without an
// id are appended with fresh ids.
func (d *DB) UpdatePlan(plan internal.Plan) (internal.Plan, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.Plan{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
UPDATE plans SET clientName = ?, planName = ?, emissionDate = ?, conclusionDate = ?,
  reason = ?, ownerName = ?, status = ?, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, plan.ClientName, plan.PlanName, plan.EmissionDate, plan.ConclusionDate,
		string(plan.Reason), plan.OwnerName, string(plan.Status), plan.ID)
	if err != nil {
		return internal.Plan{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal.Plan{}, fmt.Errorf("plan %d: %w", plan.ID, ErrNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM actionItems WHERE planId = ?`, plan.ID); err != nil {
		return internal.Plan{}, err
	}
	next := 1
	for _, item := range plan.ActionItems {
		if item.ID >= next {
			next = item.ID + 1
		}
	}
	for _, item := range plan.ActionItems {
		if item.ID <= 0 {
			item.ID = next
			next++
		}
		if err := insertItem(tx, plan.ID, item); err != nil {
			return internal.Plan{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return internal.Plan{}, err
	}
	return d.GetPlan(plan.ID)
}

// DeletePlan removes the plan together with its items and reports.
func (d *DB) DeletePlan(id int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM actionItems WHERE planId = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM reports WHERE planId = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (d *DB) ListActionItems(planID int) ([]internal.ActionItem, error) {
	items, err := d.queryItems(`SELECT `+itemColumns+` FROM actionItems WHERE planId = ? ORDER BY id`, planID)
	if err != nil {
		return nil, err
	}
	out := make([]internal.ActionItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.ActionItem)
	}
	return out, nil
}

func (d *DB) AddActionItem(planID int, item internal.ActionRecord) (internal.ActionItem, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.ActionItem{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := planExists(tx, planID); err != nil {
		return internal.ActionItem{}, err
	}
	created, err := insertItems(tx, planID, []internal.ActionRecord{item})
	if err != nil {
		return internal.ActionItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return internal.ActionItem{}, err
	}
	return created[0], nil
}

func (d *DB) AddActionItemsBatch(planID int, items []internal.ActionRecord) (internal.Plan, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.Plan{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := planExists(tx, planID); err != nil {
		return internal.Plan{}, err
	}
	if _, err := insertItems(tx, planID, items); err != nil {
		return internal.Plan{}, err
	}
	if err := tx.Commit(); err != nil {
		return internal.Plan{}, err
	}
	return d.GetPlan(planID)
}

func (d *DB) UpdateActionItem(planID int, item internal.ActionItem) (internal.ActionItem, error) {
	depts, tags := encodeLists(item.ActionRecord)
	res, err := d.conn.Exec(`
UPDATE actionItems SET title = ?, mitigationAction = ?, departmentsJson = ?, owner = ?, dueDate = ?,
  strategicPillar = ?, origin = ?, evidence = ?, verification = ?, status = ?, type = ?, priority = ?, tagsJson = ?
WHERE planId = ? AND id = ?
`, item.Title, item.MitigationAction, depts, item.Owner, item.DueDate,
		item.StrategicPillar, item.Origin, item.Evidence, item.Verification,
		string(item.Status), string(item.Type), string(item.Priority), tags, planID, item.ID)
	if err != nil {
		return internal.ActionItem{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal.ActionItem{}, fmt.Errorf("action %d in plan %d: %w", item.ID, planID, ErrNotFound)
	}
	return item, nil
}

func (d *DB) DeleteActionItem(planID, itemID int) error {
	res, err := d.conn.Exec(`DELETE FROM actionItems WHERE planId = ? AND id = ?`, planID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("action %d in plan %d: %w", itemID, planID, ErrNotFound)
	}
	return nil
}

func planExists(tx *sql.Tx, planID int) error {
	var one int
	err := tx.QueryRow(`SELECT 1 FROM plans WHERE id = ?`, planID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("plan %d: %w", planID, ErrNotFound)
	}
	return err
}

// insertItems appends items after the highest existing id of the plan.
func insertItems(tx *sql.Tx, planID int, items []internal.ActionRecord) ([]internal.ActionItem, error) {
	var next int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) + 1 FROM actionItems WHERE planId = ?`, planID).Scan(&next); err != nil {
		return nil, err
	}
	out := make([]internal.ActionItem, 0, len(items))
	for _, rec := range items {
		item := internal.ActionItem{ID: next, ActionRecord: rec}
		if err := insertItem(tx, planID, item); err != nil {
			return nil, err
		}
		out = append(out, item)
		next++
	}
	return out, nil
}

func insertItem(tx *sql.Tx, planID int, item internal.ActionItem) error {
	depts, tags := encodeLists(item.ActionRecord)
	_, err := tx.Exec(`
INSERT INTO actionItems (`+itemColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, planID, item.ID, item.Title, item.MitigationAction, depts, item.Owner, item.DueDate,
		item.StrategicPillar, item.Origin, item.Evidence, item.Verification,
		string(item.Status), string(item.Type), string(item.Priority), tags)
	return err
}

func encodeLists(rec internal.ActionRecord) (string, string) {
	depts := rec.Departments
	if depts == nil {
		depts = []string{}
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	deptsJSON, _ := json.Marshal(depts)
	tagsJSON, _ := json.Marshal(tags)
	return string(deptsJSON), string(tagsJSON)
}

type storedItem struct {
	planID int
	internal.ActionItem
}

func (d *DB) queryItems(query string, args ...any) ([]storedItem, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedItem
	for rows.Next() {
		var (
			it                  storedItem
			deptsJSON, tagsJSON string
			status, typ, prio   string
		)
		if err := rows.Scan(
			&it.planID, &it.ID, &it.Title, &it.MitigationAction, &deptsJSON, &it.Owner, &it.DueDate,
			&it.StrategicPillar, &it.Origin, &it.Evidence, &it.Verification, &status, &typ, &prio, &tagsJSON,
		); err != nil {
			return nil, err
		}
		it.Status = internal.ActionStatus(status)
		it.Type = internal.ActionType(typ)
		it.Priority = internal.ActionPriority(prio)
		it.Departments = []string{}
		it.Tags = []string{}
		if err := json.Unmarshal([]byte(deptsJSON), &it.Departments); err != nil {
			return nil, fmt.Errorf("action %d in plan %d: departments: %w", it.ID, it.planID, err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil {
			return nil, fmt.Errorf("action %d in plan %d: tags: %w", it.ID, it.planID, err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanPlan(row rowScanner) (internal.Plan, error) {
	var (
		p              internal.Plan
		conclusion     sql.NullString
		reason, status string
	)
	if err := row.Scan(&p.ID, &p.PlanCode, &p.ClientName, &p.PlanName, &p.EmissionDate, &conclusion, &reason, &p.OwnerName, &status); err != nil {
		return internal.Plan{}, err
	}
	p.Reason = internal.PlanReason(reason)
	p.Status = internal.PlanStatus(status)
	if conclusion.Valid {
		p.ConclusionDate = &conclusion.String
	}
	return p, nil
}
