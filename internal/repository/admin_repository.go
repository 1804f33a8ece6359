package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/online-movie-api/internal/apperror"
	"github.com/iliyamo/online-movie-api/internal/model"
)

// AllowedTables lists the tables reachable through the admin console.
var AllowedTables = []string{
	"user", "movie", "director", "actor", "genre", "ratings",
	"movie_genre", "movie_actor", "production_house", "movie_production",
	"Movie_Ratings_UNF", "Movie_Ratings_1NF",
}

const adminReadLimit = 100

// CheckTable fails unless name is on the allow-list. The comparison is
// exact; no store access happens here.
func CheckTable(name string) error {
	for _, t := range AllowedTables {
		if t == name {
			return nil
		}
	}
	return apperror.Forbidden(fmt.Sprintf("Access to table '%s' is not allowed.", name))
}

// AdminRepo is the generic table console. Table and column names are
// validated against the allow-list and the introspected schema before
// being quoted into SQL; values always travel as parameters.
type AdminRepo struct{ db *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// TableInfo introspects an allowed table from information_schema.
func (r *AdminRepo) TableInfo(ctx context.Context, table string) (model.TableInfo, error) {
	if err := CheckTable(table); err != nil {
		return model.TableInfo{}, err
	}

	var schema string
	if err := r.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schema); err != nil {
		return model.TableInfo{}, err
	}

	keyRows, err := r.db.QueryContext(ctx, `SELECT k.COLUMN_NAME
		FROM information_schema.table_constraints t
		JOIN information_schema.key_column_usage k
		  USING (constraint_name, table_schema, table_name)
		WHERE t.constraint_type = 'PRIMARY KEY'
		  AND t.table_schema = ? AND t.table_name = ?
		ORDER BY k.ORDINAL_POSITION`, schema, table)
	if err != nil {
		return model.TableInfo{}, err
	}
	info := model.TableInfo{CompositeKey: []string{}, Columns: []model.ColumnInfo{}}
	for keyRows.Next() {
		var col string
		if err := keyRows.Scan(&col); err != nil {
			keyRows.Close()
			return model.TableInfo{}, err
		}
		info.CompositeKey = append(info.CompositeKey, col)
	}
	keyRows.Close()
	if err := keyRows.Err(); err != nil {
		return model.TableInfo{}, err
	}
	if len(info.CompositeKey) == 1 {
		pk := info.CompositeKey[0]
		info.PrimaryKey = &pk
	}

	colRows, err := r.db.QueryContext(ctx, `SELECT COLUMN_NAME, DATA_TYPE, COLUMN_KEY, IS_NULLABLE, EXTRA
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ORDINAL_POSITION`, schema, table)
	if err != nil {
		return model.TableInfo{}, err
	}
	defer colRows.Close()
	for colRows.Next() {
		var c model.ColumnInfo
		if err := colRows.Scan(&c.ColumnName, &c.DataType, &c.ColumnKey, &c.IsNullable, &c.Extra); err != nil {
			return model.TableInfo{}, err
		}
		info.Columns = append(info.Columns, c)
	}
	return info, colRows.Err()
}

// Read returns the table description and up to 100 rows. A non-empty
// search keeps rows where any char or text column contains it.
func (r *AdminRepo) Read(ctx context.Context, table, search string) (model.TableInfo, []map[string]any, error) {
	info, err := r.TableInfo(ctx, table)
	if err != nil {
		return model.TableInfo{}, nil, err
	}

	q := "SELECT * FROM " + quoteIdent(table)
	var args []any
	if search != "" {
		if cols := info.Searchable(); len(cols) > 0 {
			conds := make([]string, len(cols))
			like := "%" + escapeLike(search) + "%"
			for i, c := range cols {
				conds[i] = quoteIdent(c) + " LIKE ?"
				args = append(args, like)
			}
			q += " WHERE " + strings.Join(conds, " OR ")
		}
	}
	q += fmt.Sprintf(" LIMIT %d", adminReadLimit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return model.TableInfo{}, nil, err
	}
	defer rows.Close()
	out, err := scanMaps(rows)
	return info, out, err
}

// Insert adds a row from record. Null and empty values and the
// auto-increment column are skipped.
func (r *AdminRepo) Insert(ctx context.Context, table string, record map[string]any) (int64, error) {
	info, err := r.TableInfo(ctx, table)
	if err != nil {
		return 0, err
	}
	autoInc := info.AutoIncrement()

	var (
		cols []string
		vals []any
	)
	for _, k := range sortedKeys(record) {
		v := record[k]
		if k == "" || k == autoInc || isBlank(v) {
			continue
		}
		if !info.HasColumn(k) {
			return 0, unknownColumn(table, k)
		}
		cols = append(cols, quoteIdent(k))
		vals = append(vals, v)
	}
	if len(cols) == 0 {
		return 0, apperror.ValidationFailed("", "No valid data provided to insert.")
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO "+quoteIdent(table)+" ("+strings.Join(cols, ", ")+") VALUES ("+placeholders(len(vals))+")",
		vals...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update sets updates on the row identified by the full primary key and
// returns the number of rows changed.
func (r *AdminRepo) Update(ctx context.Context, table string, keyValues, updates map[string]any) (int64, error) {
	info, err := r.TableInfo(ctx, table)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, apperror.ValidationFailed("updates", "No updates provided.")
	}
	where, whereArgs, err := keyClause(info, keyValues)
	if err != nil {
		return 0, err
	}

	sets := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+len(whereArgs))
	for _, k := range sortedKeys(updates) {
		if !info.HasColumn(k) {
			return 0, unknownColumn(table, k)
		}
		sets = append(sets, quoteIdent(k)+" = ?")
		args = append(args, updates[k])
	}
	args = append(args, whereArgs...)

	res, err := r.db.ExecContext(ctx,
		"UPDATE "+quoteIdent(table)+" SET "+strings.Join(sets, ", ")+" WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the row identified by the full primary key and returns
// the number of rows removed.
func (r *AdminRepo) Delete(ctx context.Context, table string, keyValues map[string]any) (int64, error) {
	info, err := r.TableInfo(ctx, table)
	if err != nil {
		return 0, err
	}
	where, args, err := keyClause(info, keyValues)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)+" WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RawQuery executes query verbatim. Statements that produce a result set
// return the rows; anything else returns an ExecResult.
func (r *AdminRepo) RawQuery(ctx context.Context, query string) (any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperror.ValidationFailed("query", "query is required")
	}
	if !ReturnsRows(query) {
		res, err := r.db.ExecContext(ctx, query)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		insertID, _ := res.LastInsertId()
		return model.ExecResult{AffectedRows: affected, InsertID: insertID}, nil
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaps(rows)
}

var rowKeywords = map[string]bool{
	"SELECT": true, "SHOW": true, "DESCRIBE": true, "DESC": true,
	"EXPLAIN": true, "WITH": true, "TABLE": true, "VALUES": true,
}

// ReturnsRows guesses from the leading keyword whether a statement yields
// a result set.
func ReturnsRows(query string) bool {
	q := strings.TrimLeft(query, " \t\r\n(")
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end >= 0 {
		q = q[:end]
	}
	return rowKeywords[strings.ToUpper(q)]
}

// keyClause builds "`a` = ? AND `b` = ?" over every key column.
func keyClause(info model.TableInfo, keyValues map[string]any) (string, []any, error) {
	if len(info.CompositeKey) == 0 {
		return "", nil, apperror.ValidationFailed("", "Table has no primary key.")
	}
	conds := make([]string, len(info.CompositeKey))
	args := make([]any, len(info.CompositeKey))
	for i, k := range info.CompositeKey {
		v, ok := keyValues[k]
		if !ok || v == nil {
			return "", nil, apperror.ValidationFailed(k, fmt.Sprintf("Missing primary key value for '%s'.", k))
		}
		conds[i] = quoteIdent(k) + " = ?"
		args[i] = v
	}
	return strings.Join(conds, " AND "), args, nil
}

// scanMaps reads rows into column-keyed maps. Text and decimal values come
// back from the driver as bytes and are returned as strings.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func unknownColumn(table, col string) error {
	return apperror.ValidationFailed(col, fmt.Sprintf("Unknown column '%s' in table '%s'.", col, table))
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
