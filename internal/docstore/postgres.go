package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"regoffice/internal/query"
	"regoffice/pkg/platform/sentinel"
)

// Postgres stores each record as a JSONB document and translates criteria
// trees into jsonpath predicates. Lax-mode jsonpath unwraps arrays at every
// step, which matches the any-element semantics of the reference evaluator.
type Postgres struct {
	db    *sql.DB
	table string
}

// NewPostgres wraps an open connection pool for one collection table. The
// table must have an `id bigserial` key and a `data jsonb` column; see
// EnsureSchema.
func NewPostgres(db *sql.DB, table string) *Postgres {
	return &Postgres{db: db, table: table}
}

// EnsureSchema creates the collection table and its GIN index if missing.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id bigserial PRIMARY KEY, data jsonb NOT NULL)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_data_idx ON %s USING gin (data jsonb_path_ops)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", table, err)
		}
	}
	return nil
}

func (p *Postgres) Execute(ctx context.Context, c query.Criteria, s *query.Sort, page query.Page) ([]query.Document, error) {
	tr := &translator{}
	where, err := tr.expr(c)
	if err != nil {
		return nil, err
	}

	sqlText := fmt.Sprintf("SELECT data FROM %s WHERE %s", p.table, where)
	if s != nil {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		sqlText += fmt.Sprintf(" ORDER BY jsonb_path_query_first(data, %s) %s NULLS FIRST", tr.literal(jsonpath(s.Field)), dir)
	} else {
		sqlText += " ORDER BY id"
	}
	if page.Limit > 0 {
		sqlText += fmt.Sprintf(" LIMIT %d", page.Limit)
	}

	rows, err := p.db.QueryContext(ctx, sqlText, tr.args...)
	if err != nil {
		return nil, fmt.Errorf("execute criteria: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []query.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w: %v", sentinel.ErrUnavailable, err)
		}
		var doc query.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w: %v", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (p *Postgres) Count(ctx context.Context, c query.Criteria) (int64, error) {
	tr := &translator{}
	where, err := tr.expr(c)
	if err != nil {
		return 0, err
	}
	var n int64
	err = p.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", p.table, where), tr.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count criteria: %w: %v", sentinel.ErrUnavailable, err)
	}
	return n, nil
}

func (p *Postgres) Insert(ctx context.Context, docs ...query.Document) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer tx.Rollback()
	if err := insertDocs(ctx, tx, p.table, docs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return txErr("commit insert", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection in one transaction so readers never
// observe a partially imported reference set.
func (p *Postgres) ReplaceAll(ctx context.Context, docs []query.Document) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", p.table)); err != nil {
		return txErr("clear collection", err)
	}
	if err := insertDocs(ctx, tx, p.table, docs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return txErr("commit replace", err)
	}
	return nil
}

func insertDocs(ctx context.Context, tx *sql.Tx, table string, docs []query.Document) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES ($1)", table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer stmt.Close()
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, raw); err != nil {
			return txErr("insert document", err)
		}
	}
	return nil
}

// txErr classifies a write-transaction failure. Transaction-rollback states
// (SQLSTATE class 40: serialization failures and deadlocks, e.g. an import
// swap racing another writer) are conflicts the caller may retry; anything
// else means the store is unavailable.
func txErr(action string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "40" {
		return fmt.Errorf("%s: %w: %v", action, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %v", action, sentinel.ErrUnavailable, err)
}

// translator renders a criteria tree as a SQL boolean expression over the
// `data` column, accumulating query parameters as it goes.
type translator struct {
	args []any
}

func (t *translator) expr(c query.Criteria) (string, error) {
	if !c.IsLeaf() {
		if len(c.Children) == 0 {
			if c.Join == query.JoinAnd {
				return "TRUE", nil
			}
			return "FALSE", nil
		}
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			part, err := t.expr(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		op := " AND "
		if c.Join == query.JoinOr {
			op = " OR "
		}
		return "(" + strings.Join(parts, op) + ")", nil
	}
	return t.leaf(c)
}

func (t *translator) leaf(c query.Criteria) (string, error) {
	path := jsonpath(c.Field)
	switch c.Op {
	case query.OpExists:
		want, ok := c.Value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: EXISTS requires a bool operand", sentinel.ErrInvalidQuery)
		}
		expr := fmt.Sprintf("jsonb_path_exists(data, %s)", t.literal(path+" ? (@ != null)"))
		if !want {
			expr = "NOT " + expr
		}
		return expr, nil

	case query.OpEq:
		return t.comparison(path, "==", c.Value)

	case query.OpNe:
		eq, err := t.comparison(path, "==", c.Value)
		if err != nil {
			return "", err
		}
		return "NOT " + eq, nil

	case query.OpGt:
		return t.comparison(path, ">", c.Value)
	case query.OpGte:
		return t.comparison(path, ">=", c.Value)
	case query.OpLt:
		return t.comparison(path, "<", c.Value)
	case query.OpLte:
		return t.comparison(path, "<=", c.Value)

	case query.OpIn:
		members, ok := c.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%w: IN requires a value list", sentinel.ErrInvalidQuery)
		}
		if len(members) == 0 {
			return "FALSE", nil
		}
		conds := make([]string, 0, len(members))
		for _, m := range members {
			ref, err := t.bindValue(m)
			if err != nil {
				return "", err
			}
			conds = append(conds, "@ == "+ref)
		}
		jp := fmt.Sprintf("%s ? (%s)", path, strings.Join(conds, " || "))
		return fmt.Sprintf("jsonb_path_exists(data, %s, %s)", t.literal(jp), t.varsArg()), nil

	case query.OpRegex:
		pattern, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("%w: REGEX requires a string pattern", sentinel.ErrInvalidQuery)
		}
		// Validate up front so a bad pattern is an InvalidQuery, not a
		// database syntax failure.
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return "", fmt.Errorf("%w: %v", sentinel.ErrInvalidQuery, err)
		}
		jp := fmt.Sprintf(`%s ? (@ like_regex %s flag "i")`, path, jsonpathString(pattern))
		return fmt.Sprintf("jsonb_path_exists(data, %s)", t.literal(jp)), nil

	default:
		return "", fmt.Errorf("%w: unknown operator %q", sentinel.ErrInvalidQuery, c.Op)
	}
}

// comparison binds the operand as a jsonpath variable so values never get
// spliced into SQL text.
func (t *translator) comparison(path, op string, value any) (string, error) {
	ref, err := t.bindValue(value)
	if err != nil {
		return "", err
	}
	jp := fmt.Sprintf("%s ? (@ %s %s)", path, op, ref)
	return fmt.Sprintf("jsonb_path_exists(data, %s, %s)", t.literal(jp), t.varsArg()), nil
}

// bindValue appends a JSON-encoded operand parameter and returns its
// jsonpath variable reference.
func (t *translator) bindValue(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported operand %T", sentinel.ErrInvalidQuery, value)
	}
	name := fmt.Sprintf("v%d", len(t.args))
	t.args = append(t.args, string(raw))
	return "$" + name, nil
}

// varsArg renders the jsonpath vars object covering every bound parameter.
func (t *translator) varsArg() string {
	if len(t.args) == 0 {
		return "'{}'::jsonb"
	}
	pairs := make([]string, 0, len(t.args))
	for i := range t.args {
		pairs = append(pairs, fmt.Sprintf("'v%d', $%d::jsonb", i, i+1))
	}
	return "jsonb_build_object(" + strings.Join(pairs, ", ") + ")"
}

// literal renders a trusted jsonpath (field paths come from code constants,
// patterns are escaped) as a SQL string literal.
func (t *translator) literal(jp string) string {
	return "'" + strings.ReplaceAll(jp, "'", "''") + "'::jsonpath"
}

func jsonpath(field string) string {
	return "$." + field
}

// jsonpathString escapes a Go string as a jsonpath double-quoted literal.
func jsonpathString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
