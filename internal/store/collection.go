// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/packstudio/internal/model"
)

// Collection is the backend contract for one record collection.
// The core assumes nothing collection-specific beyond these operations.
type Collection interface {
	Name() string
	Fields() []string
	Template() model.Record
	HasField(name string) bool
	List(ctx context.Context, opts ListOptions) ([]model.Record, error)
	GetByID(ctx context.Context, id int64) (model.Record, error)
	GetSingleton(ctx context.Context) (model.Record, error)
	Upsert(ctx context.Context, rec model.Record) (model.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Backend hands out collections by name.
type Backend interface {
	Collection(name string) (Collection, error)
}

// OrderBy is one sort key of a list query.
type OrderBy struct {
	Field string
	Desc  bool
}

// ListOptions filters and orders a list query. Filter values are matched by
// equality; a nil value matches NULL.
type ListOptions struct {
	Filter map[string]any
	Order  []OrderBy
}

// parentRef describes a column that must reference an existing row of another collection.
type parentRef struct {
	column string
	table  string
}

// childRef describes a collection whose rows reference this one.
type childRef struct {
	table  string
	column string
}

// collections is the whitelist of tables served through the generic contract.
var collections = map[string]struct {
	parent   *parentRef
	children []childRef
}{
	"packs":          {children: []childRef{{table: "items", column: model.FieldPackID}}},
	"items":          {parent: &parentRef{column: model.FieldPackID, table: "packs"}},
	"tutorials":      {},
	"news":           {},
	"users":          {},
	"settings":       {},
	"content_blocks": {},
	"page_configs":   {},
}

// Queries is the entry point to the SQLite backend.
type Queries struct {
	db *sql.DB

	mu          sync.Mutex
	collections map[string]*SQLCollection
}

// New creates a Queries bound to db.
func New(db *sql.DB) *Queries {
	return &Queries{
		db:          db,
		collections: make(map[string]*SQLCollection),
	}
}

// DB returns the underlying database handle.
func (q *Queries) DB() *sql.DB {
	return q.db
}

// Collection returns the generic collection for a whitelisted table.
// Column metadata is read once from the live schema.
func (q *Queries) Collection(name string) (Collection, error) {
	return q.sqlCollection(name)
}

func (q *Queries) sqlCollection(name string) (*SQLCollection, error) {
	def, ok := collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if c, ok := q.collections[name]; ok {
		return c, nil
	}

	columns, order, err := tableColumns(q.db, name)
	if err != nil {
		return nil, fmt.Errorf("reading schema of %s: %w", name, err)
	}

	c := &SQLCollection{
		db:       q.db,
		name:     name,
		columns:  columns,
		order:    order,
		parent:   def.parent,
		children: def.children,
	}
	q.collections[name] = c
	return c, nil
}

// tableColumns returns declared column types keyed by name, plus the column order.
func tableColumns(db *sql.DB, table string) (map[string]string, []string, error) {
	rows, err := db.Query(`SELECT name, type FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]string)
	var order []string
	for rows.Next() {
		var name, declType string
		if err := rows.Scan(&name, &declType); err != nil {
			return nil, nil, err
		}
		columns[name] = strings.ToUpper(declType)
		order = append(order, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s has no columns", table)
	}
	return columns, order, nil
}

// SQLCollection implements Collection over one SQLite table.
type SQLCollection struct {
	db       *sql.DB
	name     string
	columns  map[string]string
	order    []string
	parent   *parentRef
	children []childRef
}

// Name returns the table name.
func (c *SQLCollection) Name() string {
	return c.name
}

// HasField reports whether the table has the named column.
func (c *SQLCollection) HasField(name string) bool {
	_, ok := c.columns[name]
	return ok
}

// Fields returns the column names in schema order.
func (c *SQLCollection) Fields() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Template returns a blank record with a zero value for every writable column.
// Server-managed columns and the parent reference are left out.
func (c *SQLCollection) Template() model.Record {
	rec := make(model.Record, len(c.order))
	for _, name := range c.order {
		if name == model.FieldID || name == model.FieldCreatedAt {
			continue
		}
		if c.parent != nil && name == c.parent.column {
			continue
		}
		switch declType := c.columns[name]; {
		case declType == "BOOLEAN":
			rec[name] = false
		case strings.Contains(declType, "INT"):
			rec[name] = int64(0)
		case strings.Contains(declType, "REAL"), strings.Contains(declType, "FLOA"), strings.Contains(declType, "DOUB"):
			rec[name] = float64(0)
		default:
			rec[name] = ""
		}
	}
	return rec
}

// List returns all records matching opts.
func (c *SQLCollection) List(ctx context.Context, opts ListOptions) ([]model.Record, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(quoteIdent(c.name))

	if len(opts.Filter) > 0 {
		var conds []string
		for _, field := range sortedKeys(opts.Filter) {
			if !c.HasField(field) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.name, field)
			}
			v := opts.Filter[field]
			if v == nil {
				conds = append(conds, quoteIdent(field)+" IS NULL")
				continue
			}
			conds = append(conds, quoteIdent(field)+" = ?")
			args = append(args, toDBValue(v))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(opts.Order) > 0 {
		var keys []string
		for _, o := range opts.Order {
			if !c.HasField(o.Field) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.name, o.Field)
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			keys = append(keys, quoteIdent(o.Field)+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}

	rows, err := c.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := c.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}
	return records, nil
}

// GetByID returns one record or ErrNotFound.
func (c *SQLCollection) GetByID(ctx context.Context, id int64) (model.Record, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(c.name)+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", c.name, id, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := c.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", c.name, id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}
	return records[0], nil
}

// GetSingleton returns the first row of a singleton collection or ErrNoSingleton.
func (c *SQLCollection) GetSingleton(ctx context.Context) (model.Record, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(c.name)+" ORDER BY id ASC LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("getting %s singleton: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := c.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("getting %s singleton: %w", c.name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNoSingleton)
	}
	return records[0], nil
}

// Upsert inserts a record without id (or id 0) and otherwise inserts-or-updates
// keyed by id. Only the fields present in rec are written; created_at is server-managed.
// The stored record is returned.
func (c *SQLCollection) Upsert(ctx context.Context, rec model.Record) (model.Record, error) {
	id := rec.ID()

	var fields []string
	for _, field := range sortedKeys(rec) {
		if field == model.FieldID || field == model.FieldCreatedAt {
			continue
		}
		if !c.HasField(field) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.name, field)
		}
		fields = append(fields, field)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", c.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := c.checkParent(ctx, tx, rec); err != nil {
		return nil, err
	}

	args := make([]any, 0, len(fields)+1)
	cols := make([]string, 0, len(fields)+1)
	if id != 0 {
		cols = append(cols, "id")
		args = append(args, id)
	}
	for _, field := range fields {
		cols = append(cols, quoteIdent(field))
		args = append(args, toDBValue(rec[field]))
	}

	var query string
	switch {
	case len(cols) == 0:
		query = "INSERT INTO " + quoteIdent(c.name) + " DEFAULT VALUES"
	case id == 0:
		query = "INSERT INTO " + quoteIdent(c.name) + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	case len(fields) == 0:
		query = "INSERT INTO " + quoteIdent(c.name) + " (id) VALUES (?) ON CONFLICT(id) DO NOTHING"
	default:
		sets := make([]string, 0, len(fields))
		for _, field := range fields {
			sets = append(sets, quoteIdent(field)+" = excluded."+quoteIdent(field))
		}
		query = "INSERT INTO " + quoteIdent(c.name) + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) +
			") ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", c.name, err)
	}
	if id == 0 {
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("saving %s: %w", c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("saving %s: %w", c.name, err)
	}

	return c.GetByID(ctx, id)
}

// Delete removes a record by id. Records with children are not deleted (ErrHasChildren).
func (c *SQLCollection) Delete(ctx context.Context, id int64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", c.name, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, child := range c.children {
		var n int64
		query := "SELECT COUNT(*) FROM " + quoteIdent(child.table) + " WHERE " + quoteIdent(child.column) + " = ?"
		if err := tx.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
			return fmt.Errorf("deleting %s %d: %w", c.name, id, err)
		}
		if n > 0 {
			return fmt.Errorf("%s %d has %d %s: %w", c.name, id, n, child.table, ErrHasChildren)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(c.name)+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", c.name, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", c.name, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}

	return tx.Commit()
}

// checkParent verifies the parent reference of rec, if the collection has one.
func (c *SQLCollection) checkParent(ctx context.Context, tx *sql.Tx, rec model.Record) error {
	if c.parent == nil {
		return nil
	}
	v, ok := rec[c.parent.column]
	if !ok || v == nil {
		return nil
	}

	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+quoteIdent(c.parent.table)+" WHERE id = ?", toDBValue(v)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s.%s = %v: %w", c.name, c.parent.column, v, ErrParentNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking %s parent: %w", c.name, err)
	}
	return nil
}

// scanRecords converts rows into records, normalizing driver values to scalars.
func (c *SQLCollection) scanRecords(rows *sql.Rows) ([]model.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []model.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(model.Record, len(cols))
		for i, col := range cols {
			rec[col] = fromDBValue(values[i], c.columns[col])
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// fromDBValue normalizes a scanned driver value using the declared column type.
func fromDBValue(v any, declType string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case int64:
		if strings.Contains(declType, "BOOL") {
			return val != 0
		}
		return val
	default:
		return val
	}
}

// dbBool reads a boolean column regardless of whether the driver
// reports it as bool or integer.
func dbBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	default:
		return false
	}
}

// toDBValue converts a record value for storage. Booleans are stored as integers
// and JSON numbers are narrowed to int64 when they are whole.
func toDBValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case int:
		return int64(val)
	default:
		return val
	}
}

// quoteIdent quotes an identifier that was already checked against the schema.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var _ Collection = (*SQLCollection)(nil)
var _ Backend = (*Queries)(nil)
