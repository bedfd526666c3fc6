// Tests for the statement grammar shared by both backends.
package store

import (
	"strings"
	"testing"
)

func TestParse_Insert(t *testing.T) {
	p, err := parseStatement("INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.kind != kindInsert {
		t.Errorf("expected insert kind, got %v", p.kind)
	}
	if p.table != "customers" {
		t.Errorf("expected customers, got %q", p.table)
	}
	if len(p.insertCols) != 5 || len(p.insertVals) != 5 {
		t.Errorf("expected 5 columns and values, got %d/%d", len(p.insertCols), len(p.insertVals))
	}
}

func TestParse_InsertWithLiterals(t *testing.T) {
	p, err := parseStatement("INSERT INTO task_cycles (taskId, cycleStartDate, cycleEndDate, status, progress) VALUES (?, ?, ?, 'pending', 0)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.insertVals[3].kind != tokenString || p.insertVals[3].text != "pending" {
		t.Errorf("expected string literal 'pending', got %+v", p.insertVals[3])
	}
	if p.insertVals[4].kind != tokenNumber {
		t.Errorf("expected number literal, got %+v", p.insertVals[4])
	}
}

func TestParse_InsertTableNameContainsValues(t *testing.T) {
	p, err := parseStatement("INSERT INTO notification_values (typeKey, value) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.table != "notification_values" {
		t.Errorf("expected notification_values, got %q", p.table)
	}
	if len(p.insertCols) != 2 || p.insertCols[0] != "typeKey" || p.insertCols[1] != "value" {
		t.Errorf("unexpected columns: %v", p.insertCols)
	}
	if len(p.insertVals) != 2 || p.insertVals[0].kind != tokenPlaceholder {
		t.Errorf("unexpected values: %+v", p.insertVals)
	}
}

func TestParse_InsertColumnValueMismatch(t *testing.T) {
	_, err := parseStatement("INSERT INTO customers (name, email) VALUES (?)")
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestParse_UpdateWithWhere(t *testing.T) {
	p, err := parseStatement("UPDATE task_cycles SET status = ?, progress = ? WHERE id = ?")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(p.assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(p.assignments))
	}
	if p.assignments[0].column != "status" || p.assignments[1].column != "progress" {
		t.Errorf("unexpected assignment columns: %+v", p.assignments)
	}
	if p.where == nil || p.where.column != "id" || p.where.op != "=" {
		t.Errorf("unexpected where clause: %+v", p.where)
	}
}

func TestParse_DeleteRequiresWhere(t *testing.T) {
	_, err := parseStatement("DELETE FROM tasks")
	if err == nil {
		t.Fatal("expected unscoped delete to be rejected")
	}
	if !strings.Contains(err.Error(), "WHERE") {
		t.Errorf("expected WHERE in error, got %v", err)
	}
}

func TestParse_SelectTail(t *testing.T) {
	p, err := parseStatement("SELECT * FROM task_cycles WHERE taskId = ? ORDER BY cycleStartDate DESC LIMIT 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.table != "task_cycles" {
		t.Errorf("expected task_cycles, got %q", p.table)
	}
	if p.where == nil || p.where.column != "taskId" {
		t.Errorf("unexpected where: %+v", p.where)
	}
	if p.orderBy != "cycleStartDate" || !p.orderDesc {
		t.Errorf("unexpected order: %q desc=%v", p.orderBy, p.orderDesc)
	}
	if p.limit != 1 {
		t.Errorf("expected limit 1, got %d", p.limit)
	}
}

func TestParse_SelectCount(t *testing.T) {
	p, err := parseStatement("SELECT COUNT(*) FROM tasks WHERE notificationType = ?")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !p.countOnly {
		t.Error("expected countOnly")
	}
}

func TestParse_WhereOperators(t *testing.T) {
	for _, op := range []string{"=", "!=", ">", "<", ">=", "<="} {
		p, err := parseStatement("SELECT * FROM tasks WHERE id " + op + " ?")
		if err != nil {
			t.Fatalf("op %q: parse failed: %v", op, err)
		}
		if p.where.op != op {
			t.Errorf("op %q: got %q", op, p.where.op)
		}
	}
}

func TestParse_WhereRejectsCompound(t *testing.T) {
	_, err := parseStatement("SELECT * FROM tasks WHERE id = ? AND title = ?")
	if err == nil {
		t.Fatal("expected compound WHERE to be rejected")
	}
}

func TestParse_CustomerNameJoin(t *testing.T) {
	p, err := parseStatement("SELECT t.*, c.name AS customerName FROM tasks t LEFT JOIN customers c ON t.customerId = c.id WHERE t.id = ?")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.join != joinCustomerName {
		t.Errorf("expected customer name join, got %v", p.join)
	}
	if p.where == nil || p.where.column != "id" {
		t.Errorf("expected where on id, got %+v", p.where)
	}
}

func TestParse_LatestCycleJoin(t *testing.T) {
	stmt := "SELECT t.*, c.id AS cycleId FROM tasks t LEFT JOIN (SELECT *, ROW_NUMBER() OVER (PARTITION BY taskId ORDER BY cycleStartDate DESC) AS rn FROM task_cycles) c ON c.taskId = t.id AND c.rn = 1"
	p, err := parseStatement(stmt)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.join != joinLatestCycle {
		t.Errorf("expected latest cycle join, got %v", p.join)
	}
}

func TestParse_CreateTable(t *testing.T) {
	p, err := parseStatement(`CREATE TABLE IF NOT EXISTS things (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		ownerId INTEGER,
		FOREIGN KEY (ownerId) REFERENCES owners(id) ON DELETE CASCADE
	)`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.table != "things" {
		t.Errorf("expected things, got %q", p.table)
	}
	if len(p.columns) != 3 {
		t.Fatalf("expected 3 columns (constraint clause skipped), got %d", len(p.columns))
	}
	if !p.columns[0].PK || !p.columns[1].NotNull {
		t.Errorf("unexpected column flags: %+v", p.columns)
	}
}

func TestParse_PragmaTableInfo(t *testing.T) {
	p, err := parseStatement("PRAGMA table_info('tasks')")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.kind != kindPragma || p.table != "tasks" {
		t.Errorf("unexpected parse: kind=%v table=%q", p.kind, p.table)
	}
}

func TestParse_UnknownStatement(t *testing.T) {
	_, err := parseStatement("DROP TABLE tasks")
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected ParseError, got %v", err)
	}
}
