package store

import (
	"strconv"
	"strings"
)

// The interpreted backend does not parse general SQL. It matches the fixed,
// closed set of statement shapes the application issues and rejects anything
// else with a ParseError. Table names are taken from the first identifier
// after FROM/INTO/UPDATE/DELETE FROM; column lists come from the
// parenthesized INSERT clause or the SET clause; WHERE supports a single
// "column <op> value" comparison with no AND/OR/IN.

type stmtKind int

const (
	kindCreateTable stmtKind = iota
	kindPragma
	kindInsert
	kindUpdate
	kindDelete
	kindSelect
)

// joinKind identifies the two structural join shapes the application issues.
// The interpreter recognizes them by shape, not by parsing the join tree.
type joinKind int

const (
	joinNone joinKind = iota
	// joinLatestCycle correlates each task with its most-recent cycle via
	// the windowed-subquery pattern.
	joinLatestCycle
	// joinCustomerName merges the owning customer's name into each task row.
	joinCustomerName
)

// tokenKind classifies a literal value position in a statement.
type tokenKind int

const (
	tokenPlaceholder tokenKind = iota // ?
	tokenString                       // 'quoted'
	tokenNumber                       // 42, 3.5
	tokenNull                         // NULL
)

type token struct {
	kind tokenKind
	text string
}

// value resolves the token against the positional parameter list.
// Placeholders consume one parameter; literals resolve to themselves.
func (t token) value(params []any, next *int) any {
	switch t.kind {
	case tokenPlaceholder:
		if *next < len(params) {
			v := params[*next]
			*next++
			return v
		}
		*next++
		return nil
	case tokenString:
		return t.text
	case tokenNumber:
		if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(t.text, 64)
		return f
	default:
		return nil
	}
}

type assignment struct {
	column string
	val    token
}

type whereClause struct {
	column string
	op     string // =, !=, >, <, >=, <=
	val    token
}

type columnDef struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"notnull"`
	PK      bool   `json:"pk"`
}

// parsedStatement is the structured form of one recognized statement.
type parsedStatement struct {
	kind        stmtKind
	table       string
	columns     []columnDef // create table
	insertCols  []string
	insertVals  []token
	assignments []assignment
	where       *whereClause
	orderBy     string
	orderDesc   bool
	limit       int // -1 when absent
	countOnly   bool
	join        joinKind
}

// parseStatement classifies and parses one statement. The grammar is the
// closed set of shapes the record services and aggregator emit.
func parseStatement(statement string) (*parsedStatement, error) {
	s := strings.TrimSpace(statement)
	upper := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return parseCreateTable(statement, s)
	case strings.HasPrefix(upper, "PRAGMA"):
		return parsePragma(statement, s)
	case strings.HasPrefix(upper, "INSERT"):
		return parseInsert(statement, s)
	case strings.HasPrefix(upper, "UPDATE"):
		return parseUpdate(statement, s)
	case strings.HasPrefix(upper, "DELETE"):
		return parseDelete(statement, s)
	case strings.HasPrefix(upper, "SELECT"):
		return parseSelect(statement, s)
	default:
		return nil, parseErrorf(statement, "unknown statement kind")
	}
}

func parseCreateTable(original, s string) (*parsedStatement, error) {
	openIdx := strings.IndexByte(s, '(')
	if openIdx < 0 {
		return nil, parseErrorf(original, "CREATE TABLE without column list")
	}
	head := strings.Fields(s[:openIdx])
	// CREATE TABLE [IF NOT EXISTS] name
	name := head[len(head)-1]
	closeIdx := strings.LastIndexByte(s, ')')
	if closeIdx < openIdx {
		return nil, parseErrorf(original, "CREATE TABLE with unbalanced parentheses")
	}
	body := s[openIdx+1 : closeIdx]

	p := &parsedStatement{kind: kindCreateTable, table: name, limit: -1}
	for _, def := range splitTopLevel(body, ',') {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		fields := strings.Fields(def)
		upper := strings.ToUpper(fields[0])
		// Table-level constraint clauses carry no column.
		if upper == "FOREIGN" || upper == "PRIMARY" || upper == "UNIQUE" || upper == "CHECK" {
			continue
		}
		col := columnDef{Name: fields[0]}
		if len(fields) > 1 {
			col.Type = strings.ToUpper(fields[1])
		}
		defUpper := strings.ToUpper(def)
		col.NotNull = strings.Contains(defUpper, "NOT NULL")
		col.PK = strings.Contains(defUpper, "PRIMARY KEY")
		p.columns = append(p.columns, col)
	}
	if len(p.columns) == 0 {
		return nil, parseErrorf(original, "CREATE TABLE with no columns")
	}
	return p, nil
}

func parsePragma(original, s string) (*parsedStatement, error) {
	upper := strings.ToUpper(s)
	idx := strings.Index(upper, "TABLE_INFO")
	if idx < 0 {
		return nil, parseErrorf(original, "unsupported PRAGMA")
	}
	openIdx := strings.IndexByte(s[idx:], '(')
	closeIdx := strings.IndexByte(s[idx:], ')')
	if openIdx < 0 || closeIdx < openIdx {
		return nil, parseErrorf(original, "malformed PRAGMA table_info")
	}
	table := strings.TrimSpace(s[idx+openIdx+1 : idx+closeIdx])
	table = strings.Trim(table, "'\"")
	if table == "" {
		return nil, parseErrorf(original, "PRAGMA table_info without table")
	}
	return &parsedStatement{kind: kindPragma, table: table, limit: -1}, nil
}

func parseInsert(original, s string) (*parsedStatement, error) {
	upper := strings.ToUpper(s)
	intoIdx := strings.Index(upper, "INTO")
	if intoIdx < 0 {
		return nil, parseErrorf(original, "INSERT without INTO")
	}
	rest := strings.TrimSpace(s[intoIdx+len("INTO"):])
	openIdx := strings.IndexByte(rest, '(')
	if openIdx < 0 {
		return nil, parseErrorf(original, "INSERT without column list")
	}
	table := firstIdentifier(rest[:openIdx])
	if table == "" {
		return nil, parseErrorf(original, "INSERT without table name")
	}
	closeIdx := strings.IndexByte(rest[openIdx:], ')')
	if closeIdx < 0 {
		return nil, parseErrorf(original, "INSERT with unbalanced column list")
	}
	var cols []string
	for _, c := range strings.Split(rest[openIdx+1:openIdx+closeIdx], ",") {
		cols = append(cols, strings.TrimSpace(c))
	}

	// Word-boundary search: a bare substring match would hit table names
	// such as notification_values.
	valuesIdx := keywordIndex(rest, "VALUES")
	if valuesIdx < 0 {
		return nil, parseErrorf(original, "INSERT without VALUES")
	}
	valPart := strings.TrimSpace(rest[valuesIdx+len("VALUES"):])
	vOpen := strings.IndexByte(valPart, '(')
	vClose := strings.LastIndexByte(valPart, ')')
	if vOpen < 0 || vClose < vOpen {
		return nil, parseErrorf(original, "INSERT with unbalanced VALUES list")
	}
	var vals []token
	for _, raw := range splitTopLevel(valPart[vOpen+1:vClose], ',') {
		tok, err := parseToken(original, raw)
		if err != nil {
			return nil, err
		}
		vals = append(vals, tok)
	}
	if len(vals) != len(cols) {
		return nil, parseErrorf(original, "INSERT columns/values mismatch: %d vs %d", len(cols), len(vals))
	}
	return &parsedStatement{kind: kindInsert, table: table, insertCols: cols, insertVals: vals, limit: -1}, nil
}

func parseUpdate(original, s string) (*parsedStatement, error) {
	setIdx := keywordIndex(s, "SET")
	if setIdx < 0 {
		return nil, parseErrorf(original, "UPDATE without SET")
	}
	table := firstIdentifier(s[len("UPDATE"):setIdx])
	if table == "" {
		return nil, parseErrorf(original, "UPDATE without table name")
	}

	setPart := s[setIdx+len("SET"):]
	var where *whereClause
	if wIdx := keywordIndex(setPart, "WHERE"); wIdx >= 0 {
		var err error
		where, err = parseWhere(original, setPart[wIdx+len("WHERE"):])
		if err != nil {
			return nil, err
		}
		setPart = setPart[:wIdx]
	}

	p := &parsedStatement{kind: kindUpdate, table: table, where: where, limit: -1}
	for _, pair := range splitTopLevel(setPart, ',') {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			return nil, parseErrorf(original, "SET clause without assignment: %q", pair)
		}
		col := stripAlias(strings.TrimSpace(pair[:eq]))
		tok, err := parseToken(original, pair[eq+1:])
		if err != nil {
			return nil, err
		}
		p.assignments = append(p.assignments, assignment{column: col, val: tok})
	}
	if len(p.assignments) == 0 {
		return nil, parseErrorf(original, "UPDATE with empty SET clause")
	}
	return p, nil
}

func parseDelete(original, s string) (*parsedStatement, error) {
	upper := strings.ToUpper(s)
	fromIdx := strings.Index(upper, "FROM")
	if fromIdx < 0 {
		return nil, parseErrorf(original, "DELETE without FROM")
	}
	rest := s[fromIdx+len("FROM"):]
	wIdx := keywordIndex(rest, "WHERE")
	if wIdx < 0 {
		// Unscoped deletes fail closed.
		return nil, parseErrorf(original, "DELETE requires a WHERE clause")
	}
	table := firstIdentifier(rest[:wIdx])
	if table == "" {
		return nil, parseErrorf(original, "DELETE without table name")
	}
	where, err := parseWhere(original, rest[wIdx+len("WHERE"):])
	if err != nil {
		return nil, err
	}
	return &parsedStatement{kind: kindDelete, table: table, where: where, limit: -1}, nil
}

func parseSelect(original, s string) (*parsedStatement, error) {
	upper := strings.ToUpper(s)

	// The two structural join shapes are recognized before general parsing.
	if strings.Contains(upper, "LEFT JOIN") {
		switch {
		case strings.Contains(upper, "ROW_NUMBER() OVER") && strings.Contains(upper, "FROM TASK_CYCLES"):
			return parseJoinTail(original, s, joinLatestCycle)
		case strings.Contains(upper, "LEFT JOIN CUSTOMERS"):
			return parseJoinTail(original, s, joinCustomerName)
		default:
			return nil, parseErrorf(original, "unsupported join shape")
		}
	}

	fromIdx := keywordIndex(s, "FROM")
	if fromIdx < 0 {
		return nil, parseErrorf(original, "SELECT without FROM")
	}
	projection := strings.TrimSpace(s[len("SELECT"):fromIdx])
	p := &parsedStatement{kind: kindSelect, limit: -1}
	p.countOnly = strings.EqualFold(projection, "COUNT(*)")

	rest := s[fromIdx+len("FROM"):]
	p.table = firstIdentifier(rest)
	if p.table == "" {
		return nil, parseErrorf(original, "SELECT without table name")
	}
	return parseSelectTail(original, p, rest[len(p.table)+leadingSpace(rest):])
}

// parseJoinTail parses the WHERE/ORDER BY/LIMIT tail of a recognized join
// shape. The parent table is always tasks.
func parseJoinTail(original, s string, join joinKind) (*parsedStatement, error) {
	p := &parsedStatement{kind: kindSelect, table: "tasks", join: join, limit: -1}
	// The tail begins at the last WHERE/ORDER BY/LIMIT outside the subquery;
	// scan from the final closing parenthesis when one exists.
	tail := s
	if join == joinLatestCycle {
		if idx := strings.LastIndexByte(s, ')'); idx >= 0 {
			tail = s[idx+1:]
		}
	}
	return parseSelectTail(original, p, tail)
}

// parseSelectTail parses the optional WHERE, ORDER BY, and LIMIT pieces
// following the FROM clause.
func parseSelectTail(original string, p *parsedStatement, tail string) (*parsedStatement, error) {
	if idx := keywordIndex(tail, "LIMIT"); idx >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(tail[idx+len("LIMIT"):]))
		if err != nil {
			return nil, parseErrorf(original, "malformed LIMIT")
		}
		p.limit = n
		tail = tail[:idx]
	}
	if idx := keywordIndex(tail, "ORDER BY"); idx >= 0 {
		order := strings.TrimSpace(tail[idx+len("ORDER BY"):])
		fields := strings.Fields(order)
		if len(fields) == 0 {
			return nil, parseErrorf(original, "malformed ORDER BY")
		}
		p.orderBy = stripAlias(fields[0])
		p.orderDesc = len(fields) > 1 && strings.EqualFold(fields[1], "DESC")
		tail = tail[:idx]
	}
	if idx := keywordIndex(tail, "WHERE"); idx >= 0 {
		where, err := parseWhere(original, tail[idx+len("WHERE"):])
		if err != nil {
			return nil, err
		}
		p.where = where
	}
	return p, nil
}

// parseWhere parses the restricted predicate: one "column <op> value"
// comparison. AND/OR/IN are rejected as unrecognized shapes.
func parseWhere(original, clause string) (*whereClause, error) {
	clause = strings.TrimSpace(clause)
	upperClause := strings.ToUpper(clause)
	for _, kw := range []string{" AND ", " OR ", " IN ", " IN("} {
		if strings.Contains(upperClause, kw) {
			return nil, parseErrorf(original, "WHERE supports a single comparison only")
		}
	}
	for _, op := range []string{">=", "<=", "!=", "=", ">", "<"} {
		idx := strings.Index(clause, op)
		if idx < 0 {
			continue
		}
		col := stripAlias(strings.TrimSpace(clause[:idx]))
		if col == "" {
			return nil, parseErrorf(original, "WHERE without column")
		}
		tok, err := parseToken(original, clause[idx+len(op):])
		if err != nil {
			return nil, err
		}
		return &whereClause{column: col, op: op, val: tok}, nil
	}
	return nil, parseErrorf(original, "WHERE without comparison operator")
}

// parseToken parses one value position: ?, 'string', number, or NULL.
func parseToken(original, raw string) (token, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "?":
		return token{kind: tokenPlaceholder}, nil
	case strings.EqualFold(raw, "NULL"):
		return token{kind: tokenNull}, nil
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		return token{kind: tokenString, text: raw[1 : len(raw)-1]}, nil
	default:
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return token{kind: tokenNumber, text: raw}, nil
		}
		return token{}, parseErrorf(original, "unrecognized value %q", raw)
	}
}

// firstIdentifier returns the first identifier in s, ignoring a trailing
// alias. Used for table-name extraction.
func firstIdentifier(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "`\"'")
}

// stripAlias removes a single-letter table alias prefix such as "t." or "c.".
func stripAlias(col string) string {
	if idx := strings.IndexByte(col, '.'); idx >= 0 {
		return col[idx+1:]
	}
	return col
}

// keywordIndex finds a keyword appearing as a standalone word outside
// quotes, case-insensitively. Returns -1 when absent.
func keywordIndex(s, keyword string) int {
	upper := strings.ToUpper(s)
	keyword = strings.ToUpper(keyword)
	from := 0
	for {
		idx := strings.Index(upper[from:], keyword)
		if idx < 0 {
			return -1
		}
		idx += from
		before := idx == 0 || upper[idx-1] == ' ' || upper[idx-1] == '\n' || upper[idx-1] == '\t' || upper[idx-1] == '('
		afterIdx := idx + len(keyword)
		after := afterIdx >= len(upper) || upper[afterIdx] == ' ' || upper[afterIdx] == '\n' || upper[afterIdx] == '\t'
		if before && after && !insideQuotes(s[:idx]) {
			return idx
		}
		from = idx + len(keyword)
	}
}

// insideQuotes reports whether the end of prefix falls inside a
// single-quoted literal.
func insideQuotes(prefix string) bool {
	return strings.Count(prefix, "'")%2 == 1
}

// splitTopLevel splits s on sep, ignoring separators inside parentheses or
// single quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case sep:
			if depth == 0 && !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// leadingSpace counts the leading whitespace of s.
func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \n\t"))
}
