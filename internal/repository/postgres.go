package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chetan-code/concentraction/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique constraint failures.
const pgUniqueViolation = "23505"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts(
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE
	);`,
	// position is the append order of the embedded task sequence
	`CREATE TABLE IF NOT EXISTS tasks(
		position BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		name TEXT NOT NULL,
		priority TEXT,
		category TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		description TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS objectives(
		position BIGSERIAL PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		title TEXT NOT NULL,
		status BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE INDEX IF NOT EXISTS tasks_account_idx ON tasks(account_id, position);`,
}

// AccountRepo stores accounts in postgres through the pgx database/sql driver.
// Tasks and objectives live in child tables ordered by position.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) (*AccountRepo, error) {
	repo := &AccountRepo{db: db}

	err := repo.CreateTables(context.Background())
	if err != nil {
		return nil, fmt.Errorf("could not initialize tables: %w", err)
	}

	return repo, nil
}

func (r *AccountRepo) CreateTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return pgError("create tables", err)
		}
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (models.Account, error) {
	if id == "" {
		return models.Account{}, ErrNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *AccountRepo) FindOne(ctx context.Context, filter Filter) (models.Account, error) {
	if filter.Email == "" {
		return models.Account{}, ErrNotFound
	}
	return r.findOne(ctx, "email", filter.Email)
}

// findOne loads the account whose column equals value. column is never
// caller input.
func (r *AccountRepo) findOne(ctx context.Context, column, value string) (models.Account, error) {
	query := "SELECT id, username, password, email FROM accounts WHERE " + column + " = $1"

	// one snapshot for the account row and its embedded collections
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return models.Account{}, pgError("begin read", err)
	}
	defer tx.Rollback()

	var acc models.Account
	err = tx.QueryRowContext(ctx, query, value).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, pgError("find account", err)
	}

	if acc.Tasks, err = fetchTasks(ctx, tx, acc.ID); err != nil {
		return models.Account{}, err
	}
	if acc.Objectives, err = fetchObjectives(ctx, tx, acc.ID); err != nil {
		return models.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Account{}, pgError("commit read", err)
	}
	return acc, nil
}

func fetchTasks(ctx context.Context, tx *sql.Tx, accountID string) ([]models.Task, error) {
	query := `SELECT id, name, priority, category, status, start_date, end_date, description
		FROM tasks WHERE account_id = $1 ORDER BY position ASC`
	rows, err := tx.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, pgError("fetch tasks", err)
	}
	defer rows.Close() //close the cursor in the end

	tasks := []models.Task{}
	for rows.Next() {
		var (
			t          models.Task
			priority   sql.NullString
			start, end sql.NullTime
			desc       sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &priority, &t.Category, &t.Status, &start, &end, &desc); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = models.Priority(priority.String)
		t.Desc = desc.String
		if start.Valid {
			s := start.Time.UTC()
			t.StartDate = &s
		}
		if end.Valid {
			e := end.Time.UTC()
			t.EndDate = &e
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("fetch tasks", err)
	}
	return tasks, nil
}

func fetchObjectives(ctx context.Context, tx *sql.Tx, accountID string) ([]models.Objective, error) {
	rows, err := tx.QueryContext(ctx, "SELECT title, status FROM objectives WHERE account_id = $1 ORDER BY position ASC", accountID)
	if err != nil {
		return nil, pgError("fetch objectives", err)
	}
	defer rows.Close()

	objectives := []models.Objective{}
	for rows.Next() {
		var o models.Objective
		if err := rows.Scan(&o.Title, &o.Status); err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		objectives = append(objectives, o)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("fetch objectives", err)
	}
	return objectives, nil
}

func (r *AccountRepo) Insert(ctx context.Context, account models.Account) (models.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, pgError("begin insert", err)
	}
	defer tx.Rollback()

	stored := account.Clone()
	stored.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO accounts (id, username, password, email) VALUES ($1, $2, $3, $4)",
		stored.ID, stored.Username, stored.PasswordHash, stored.Email)
	if err != nil {
		return models.Account{}, pgError("insert account", err)
	}
	if stored.Tasks == nil {
		stored.Tasks = []models.Task{}
	}
	for i := range stored.Tasks {
		stored.Tasks[i].ID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, insertTaskQuery, taskArgs(stored.ID, stored.Tasks[i])...); err != nil {
			return models.Account{}, pgError("insert task", err)
		}
	}
	if stored.Objectives == nil {
		stored.Objectives = []models.Objective{}
	}
	for _, o := range stored.Objectives {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO objectives (account_id, title, status) VALUES ($1, $2, $3)",
			stored.ID, o.Title, o.Status); err != nil {
			return models.Account{}, pgError("insert objective", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Account{}, pgError("commit insert", err)
	}
	return stored, nil
}

// insertTaskQuery appends only when the owning account exists, so the row
// count behaves like a matched push.
const insertTaskQuery = `INSERT INTO tasks (id, account_id, name, priority, category, status, start_date, end_date, description)
	SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::timestamptz, $8::timestamptz, $9::text
	WHERE EXISTS (SELECT 1 FROM accounts WHERE id = $2::text)`

func taskArgs(accountID string, t models.Task) []any {
	return []any{
		t.ID, accountID, t.Name,
		sql.NullString{String: string(t.Priority), Valid: t.Priority != ""},
		string(t.Category), string(t.Status),
		t.StartDate, t.EndDate,
		sql.NullString{String: t.Desc, Valid: t.Desc != ""},
	}
}

func (r *AccountRepo) PushTask(ctx context.Context, accountID string, task models.Task) (UpdateResult, error) {
	task.ID = uuid.NewString()
	res, err := r.db.ExecContext(ctx, insertTaskQuery, taskArgs(accountID, task)...)
	if err != nil {
		return UpdateResult{}, pgError("push task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return UpdateResult{}, pgError("push task", err)
	}
	out := UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}
	if n == 1 {
		out.InsertedID = task.ID
	}
	return out, nil
}

func (r *AccountRepo) SetTaskFields(ctx context.Context, accountID, taskID string, fields TaskFields) (UpdateResult, error) {
	update := `UPDATE tasks SET name = $3, category = $4, status = $5
		WHERE account_id = $1 AND id = $2 AND (name, category, status) IS DISTINCT FROM ($3, $4, $5)`
	exists := "SELECT EXISTS (SELECT 1 FROM tasks WHERE account_id = $1 AND id = $2)"
	return r.conditionalUpdate(ctx, update, exists, []any{accountID, taskID, fields.Name, string(fields.Category), string(fields.Status)}, 2)
}

func (r *AccountRepo) SetAccountFields(ctx context.Context, accountID string, fields AccountFields) (UpdateResult, error) {
	if fields.Empty() {
		return UpdateResult{Acknowledged: true}, nil
	}
	var (
		cols []string
		vals []string
		args = []any{accountID}
	)
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		cols = append(cols, col)
		vals = append(vals, fmt.Sprintf("$%d", len(args)))
	}
	set("username", fields.Username)
	set("email", fields.Email)
	set("password", fields.PasswordHash)

	assignments := make([]string, len(cols))
	for i := range cols {
		assignments[i] = cols[i] + " = " + vals[i]
	}
	update := fmt.Sprintf("UPDATE accounts SET %s WHERE id = $1 AND (%s) IS DISTINCT FROM (%s)",
		strings.Join(assignments, ", "), strings.Join(cols, ", "), strings.Join(vals, ", "))
	exists := "SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)"
	return r.conditionalUpdate(ctx, update, exists, args, 1)
}

// conditionalUpdate runs an update that only touches rows whose values change,
// then derives the matched count the way mongo reports it.
func (r *AccountRepo) conditionalUpdate(ctx context.Context, update, exists string, args []any, keyArgs int) (UpdateResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return UpdateResult{}, pgError("begin update", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return UpdateResult{}, pgError("update", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return UpdateResult{}, pgError("update", err)
	}
	matched := modified
	if modified == 0 {
		var found bool
		if err := tx.QueryRowContext(ctx, exists, args[:keyArgs]...).Scan(&found); err != nil {
			return UpdateResult{}, pgError("update", err)
		}
		if found {
			matched = 1
		}
	}
	if err := tx.Commit(); err != nil {
		return UpdateResult{}, pgError("commit update", err)
	}
	return UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified}, nil
}

// pgError maps driver failures onto the store error taxonomy.
func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return duplicateError(err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || pgconn.Timeout(err) || errors.As(err, &netErr) {
		return unavailableError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
