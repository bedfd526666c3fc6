package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dukaforge/cadence/pkg/types"
)

// snapshotKey is the namespace under which the interpreted backend keeps its
// single state blob.
const snapshotKey = "cadence/state"

// snapshotState is the serialized form of the backend: every table's rows
// plus the registered schemas, so PRAGMA table_info answers identically
// after a reload.
type snapshotState struct {
	Tables  map[string][]Row       `json:"tables"`
	Schemas map[string][]columnDef `json:"schemas"`
}

// MemoryStore interprets the application's statement shapes against plain
// in-memory tables. Every mutating statement is followed by a snapshot
// save, so the store survives a restart with the same visible state the
// sqlite backend would have.
type MemoryStore struct {
	mu      sync.Mutex
	snap    SnapshotStore
	tables  map[string][]Row
	schemas map[string][]columnDef
}

// OpenMemory restores the interpreted backend from its snapshot, or starts
// empty when none exists.
func OpenMemory(snap SnapshotStore) (*MemoryStore, error) {
	m := &MemoryStore{
		snap:    snap,
		tables:  make(map[string][]Row),
		schemas: make(map[string][]columnDef),
	}
	data, ok, err := snap.Load(snapshotKey)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if ok {
		var state snapshotState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		if state.Tables != nil {
			m.tables = state.Tables
		}
		if state.Schemas != nil {
			m.schemas = state.Schemas
		}
	}
	return m, nil
}

// Execute interprets one statement. Mutations persist a snapshot before
// returning.
func (m *MemoryStore) Execute(ctx context.Context, statement string, params []any) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := parseStatement(statement)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch p.kind {
	case kindCreateTable:
		return m.execCreateTable(p)
	case kindPragma:
		return m.execPragma(p), nil
	case kindInsert:
		return m.execInsert(p, params)
	case kindUpdate:
		return m.execUpdate(p, params)
	case kindDelete:
		return m.execDelete(p, params)
	case kindSelect:
		return m.execSelect(p, params)
	default:
		return nil, parseErrorf(statement, "unhandled statement kind")
	}
}

// Close writes a final snapshot.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persist()
}

func (m *MemoryStore) persist() error {
	data, err := json.Marshal(snapshotState{Tables: m.tables, Schemas: m.schemas})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := m.snap.Save(snapshotKey, data); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (m *MemoryStore) execCreateTable(p *parsedStatement) (*Result, error) {
	if _, ok := m.schemas[p.table]; !ok {
		m.schemas[p.table] = p.columns
	}
	if _, ok := m.tables[p.table]; !ok {
		m.tables[p.table] = []Row{}
	}
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// execPragma answers PRAGMA table_info. An unknown table yields an empty
// result, matching the sqlite behavior.
func (m *MemoryStore) execPragma(p *parsedStatement) *Result {
	res := &Result{}
	for i, col := range m.schemas[p.table] {
		notnull := int64(0)
		if col.NotNull {
			notnull = 1
		}
		pk := int64(0)
		if col.PK {
			pk = 1
		}
		res.Values = append(res.Values, Row{
			"cid":        int64(i),
			"name":       col.Name,
			"type":       col.Type,
			"notnull":    notnull,
			"dflt_value": nil,
			"pk":         pk,
		})
	}
	return res
}

func (m *MemoryStore) execInsert(p *parsedStatement, params []any) (*Result, error) {
	schema, ok := m.schemas[p.table]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", p.table)
	}
	row := Row{}
	next := 0
	for i, col := range p.insertCols {
		row[col] = normalizeValue(p.insertVals[i].value(params, &next))
	}
	for _, col := range schema {
		if _, present := row[col.Name]; !present {
			row[col.Name] = nil
		}
	}

	var lastID int64
	if hasColumn(schema, "id") {
		if provided, ok := AsInt64(row["id"]); ok && row["id"] != nil {
			lastID = provided
		} else {
			lastID = m.nextID(p.table)
			row["id"] = lastID
		}
	}
	m.tables[p.table] = append(m.tables[p.table], row)
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &Result{Changes: Changes{Changes: 1, LastID: lastID}}, nil
}

func (m *MemoryStore) execUpdate(p *parsedStatement, params []any) (*Result, error) {
	if _, ok := m.schemas[p.table]; !ok {
		return nil, fmt.Errorf("no such table: %s", p.table)
	}
	// Placeholders resolve in statement order: SET values first, WHERE last.
	next := 0
	values := make([]any, len(p.assignments))
	for i, a := range p.assignments {
		values[i] = normalizeValue(a.val.value(params, &next))
	}
	var whereVal any
	if p.where != nil {
		whereVal = normalizeValue(p.where.val.value(params, &next))
	}

	changed := int64(0)
	for _, row := range m.tables[p.table] {
		if !matchRow(row, p.where, whereVal) {
			continue
		}
		for i, a := range p.assignments {
			row[a.column] = values[i]
		}
		changed++
	}
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &Result{Changes: Changes{Changes: changed}}, nil
}

func (m *MemoryStore) execDelete(p *parsedStatement, params []any) (*Result, error) {
	if _, ok := m.schemas[p.table]; !ok {
		return nil, fmt.Errorf("no such table: %s", p.table)
	}
	next := 0
	whereVal := normalizeValue(p.where.val.value(params, &next))

	var kept, removed []Row
	for _, row := range m.tables[p.table] {
		if matchRow(row, p.where, whereVal) {
			removed = append(removed, row)
			continue
		}
		kept = append(kept, row)
	}
	changed := int64(len(removed))
	m.tables[p.table] = kept

	// Referential actions the schema declares: deleting a customer clears
	// the owning column on its tasks, deleting a task removes its cycles
	// and history, deleting a channel removes its stored values.
	switch p.table {
	case "customers":
		for _, row := range removed {
			for _, task := range m.tables["tasks"] {
				if equalValues(task["customerId"], row["id"]) {
					task["customerId"] = nil
				}
			}
		}
	case "tasks":
		for _, row := range removed {
			m.tables["task_cycles"] = dropRowsMatching(m.tables["task_cycles"], "taskId", row["id"])
			m.tables["task_history"] = dropRowsMatching(m.tables["task_history"], "taskId", row["id"])
		}
	case "notification_types":
		for _, row := range removed {
			m.tables["notification_values"] = dropRowsMatching(m.tables["notification_values"], "typeKey", row["key"])
		}
	}

	if err := m.persist(); err != nil {
		return nil, err
	}
	return &Result{Changes: Changes{Changes: changed}}, nil
}

func (m *MemoryStore) execSelect(p *parsedStatement, params []any) (*Result, error) {
	if _, ok := m.schemas[p.table]; !ok {
		return nil, fmt.Errorf("no such table: %s", p.table)
	}
	var rows []Row
	switch p.join {
	case joinLatestCycle:
		rows = m.joinLatestCycles()
	case joinCustomerName:
		rows = m.joinCustomerNames()
	default:
		for _, row := range m.tables[p.table] {
			rows = append(rows, copyRow(row))
		}
	}

	if p.where != nil {
		next := 0
		whereVal := normalizeValue(p.where.val.value(params, &next))
		var filtered []Row
		for _, row := range rows {
			if matchRow(row, p.where, whereVal) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if p.countOnly {
		return &Result{Values: []Row{{"COUNT(*)": int64(len(rows))}}}, nil
	}

	if p.orderBy != "" {
		col := p.orderBy
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := compareValues(rows[i][col], rows[j][col])
			if p.orderDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if p.limit >= 0 && len(rows) > p.limit {
		rows = rows[:p.limit]
	}
	return &Result{Values: rows}, nil
}

// joinLatestCycles produces one row per task carrying that task's
// most-recent cycle: the cycle with the greatest cycleStartDate, ties broken
// toward the still-actionable status.
func (m *MemoryStore) joinLatestCycles() []Row {
	latest := make(map[string]Row)
	for _, cycle := range m.tables["task_cycles"] {
		key := AsString(cycle["taskId"])
		current, ok := latest[key]
		if !ok || cycleNewer(cycle, current) {
			latest[key] = cycle
		}
	}

	var rows []Row
	for _, task := range m.tables["tasks"] {
		merged := copyRow(task)
		cycle := latest[AsString(task["id"])]
		if cycle != nil {
			merged["cycleId"] = cycle["id"]
			merged["cycleStartDate"] = cycle["cycleStartDate"]
			merged["cycleEndDate"] = cycle["cycleEndDate"]
			merged["status"] = cycle["status"]
			merged["progress"] = cycle["progress"]
			merged["completedAt"] = cycle["completedAt"]
		} else {
			merged["cycleId"] = nil
			merged["cycleStartDate"] = nil
			merged["cycleEndDate"] = nil
			merged["status"] = nil
			merged["progress"] = nil
			merged["completedAt"] = nil
		}
		rows = append(rows, merged)
	}
	return rows
}

// cycleNewer reports whether a should replace b as a task's latest cycle.
func cycleNewer(a, b Row) bool {
	cmp := compareValues(a["cycleStartDate"], b["cycleStartDate"])
	if cmp != 0 {
		return cmp > 0
	}
	ap := types.CycleStatusPriority(AsString(a["status"]))
	bp := types.CycleStatusPriority(AsString(b["status"]))
	return ap < bp
}

func (m *MemoryStore) joinCustomerNames() []Row {
	names := make(map[string]any)
	for _, c := range m.tables["customers"] {
		names[AsString(c["id"])] = c["name"]
	}
	var rows []Row
	for _, task := range m.tables["tasks"] {
		merged := copyRow(task)
		if task["customerId"] != nil {
			merged["customerName"] = names[AsString(task["customerId"])]
		} else {
			merged["customerName"] = nil
		}
		rows = append(rows, merged)
	}
	return rows
}

// nextID assigns monotonically from the current maximum, so ids are never
// reused within a run but may be after deleting the highest row. The
// application never depends on the difference.
func (m *MemoryStore) nextID(table string) int64 {
	max := int64(0)
	for _, row := range m.tables[table] {
		if id, ok := AsInt64(row["id"]); ok && id > max {
			max = id
		}
	}
	return max + 1
}

func hasColumn(schema []columnDef, name string) bool {
	for _, col := range schema {
		if strings.EqualFold(col.Name, name) {
			return true
		}
	}
	return false
}

func dropRowsMatching(rows []Row, column string, value any) []Row {
	var kept []Row
	for _, row := range rows {
		if !equalValues(row[column], value) {
			kept = append(kept, row)
		}
	}
	return kept
}

func matchRow(row Row, where *whereClause, val any) bool {
	if where == nil {
		return true
	}
	have := row[where.column]
	switch where.op {
	case "=":
		return equalValues(have, val)
	case "!=":
		return !equalValues(have, val)
	}
	if have == nil || val == nil {
		return false
	}
	cmp := compareValues(have, val)
	switch where.op {
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return compareValues(a, b) == 0
}

// compareValues orders two column values: numerically when both sides are
// numeric, lexically otherwise. Dates compare correctly as strings because
// both backends store them in RFC 3339 form. nil sorts first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(AsString(a), AsString(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// normalizeValue folds parameter values into the snapshot-stable set:
// integers widen to int64, booleans become integer flags.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case bool:
		if n {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case *int64:
		if n == nil {
			return nil
		}
		return *n
	default:
		return v
	}
}

func copyRow(row Row) Row {
	cp := make(Row, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp
}
