package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"employee-directory/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("record not found")

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EmployeeRepository is the data access contract for the employees table.
type EmployeeRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	FindByEmail(ctx context.Context, email string) (*models.Employee, error)
	CountByEmail(ctx context.Context, email string) (int, error)
	FindAll(ctx context.Context) ([]models.Employee, error)
	Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
	Insert(ctx context.Context, e *models.Employee) error
	BatchInsert(ctx context.Context, employees []*models.Employee) error
	Update(ctx context.Context, e *models.Employee) error
	UpdateWithPassword(ctx context.Context, e *models.Employee, password string) error
	UpdatePassword(ctx context.Context, id int64, password string) error
	DeleteByID(ctx context.Context, id int64) error
}

const employeeColumns = `id, name, email, password, phone, department, role, created_at, updated_at`

// batchChunkRows keeps one INSERT well under the 65535 bind parameter limit.
const batchChunkRows = 1000

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type employeeRepository struct {
	db DBTX
}

func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("find employee by id %d: %w", id, err)
	}
	return e, nil
}

func (r *employeeRepository) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("find employee by email %s: %w", email, err)
	}
	return e, nil
}

func (r *employeeRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE email = $1`, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees by email %s: %w", email, err)
	}
	return n, nil
}

func (r *employeeRepository) FindAll(ctx context.Context) ([]models.Employee, error) {
	return r.list(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at DESC`)
}

// Search matches every non-blank filter as a case-insensitive substring.
// Wildcard characters in a filter match literally.
func (r *employeeRepository) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []any{}
	argIdx := 1

	for _, f := range []struct {
		column string
		value  string
	}{
		{"name", filter.Name},
		{"email", filter.Email},
		{"department", filter.Department},
		{"role", filter.Role},
	} {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		query += " AND " + f.column + " ILIKE '%' || $" + strconv.Itoa(argIdx) + " || '%' ESCAPE '\\'"
		args = append(args, likeEscaper.Replace(v))
		argIdx++
	}
	query += " ORDER BY created_at DESC"

	return r.list(ctx, query, args...)
}

func (r *employeeRepository) Insert(ctx context.Context, e *models.Employee) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO employees (name, email, password, phone, department, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		e.Name, e.Email, e.Password, e.Phone, e.Department, e.Role,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert employee %s: %w", e.Email, err)
	}
	return nil
}

// BatchInsert writes all rows in one transaction, using multi-row INSERTs of
// at most batchChunkRows rows, and fills in the generated id and timestamps
// in input order.
func (r *employeeRepository) BatchInsert(ctx context.Context, employees []*models.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("batch insert: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(employees); start += batchChunkRows {
		end := min(start+batchChunkRows, len(employees))
		if err := insertChunk(ctx, tx, employees[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("batch insert: commit: %w", err)
	}
	return nil
}

func insertChunk(ctx context.Context, tx pgx.Tx, employees []*models.Employee) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO employees (name, email, password, phone, department, role) VALUES ")
	args := make([]any, 0, len(employees)*6)
	for i, e := range employees {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, e.Name, e.Email, e.Password, e.Phone, e.Department, e.Role)
	}
	sb.WriteString(" RETURNING id, created_at, updated_at")

	rows, err := tx.Query(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("batch insert %d employees: %w", len(employees), err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(employees) {
			return fmt.Errorf("batch insert: more rows returned than inserted")
		}
		e := employees[i]
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return fmt.Errorf("batch insert scan: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	if i != len(employees) {
		return fmt.Errorf("batch insert: %d rows returned for %d inserted", i, len(employees))
	}
	return nil
}

func (r *employeeRepository) Update(ctx context.Context, e *models.Employee) error {
	return updateProfile(ctx, r.db, e)
}

// UpdateWithPassword writes the profile and a new password hash atomically.
func (r *employeeRepository) UpdateWithPassword(ctx context.Context, e *models.Employee, password string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update employee %d: begin tx: %w", e.ID, err)
	}
	defer tx.Rollback(ctx)

	if err := updateProfile(ctx, tx, e); err != nil {
		return err
	}
	if err := setPassword(ctx, tx, e.ID, password); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("update employee %d: commit: %w", e.ID, err)
	}
	return nil
}

func (r *employeeRepository) UpdatePassword(ctx context.Context, id int64, password string) error {
	return setPassword(ctx, r.db, id, password)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateProfile(ctx context.Context, db execer, e *models.Employee) error {
	ct, err := db.Exec(ctx, `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, department = $4, role = $5, updated_at = NOW()
		WHERE id = $6`,
		e.Name, e.Email, e.Phone, e.Department, e.Role, e.ID)
	if err != nil {
		return fmt.Errorf("update employee %d: %w", e.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update employee %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

func setPassword(ctx context.Context, db execer, id int64, password string) error {
	ct, err := db.Exec(ctx, `UPDATE employees SET password = $1, updated_at = NOW() WHERE id = $2`, password, id)
	if err != nil {
		return fmt.Errorf("update password for employee %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update password for employee %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *employeeRepository) DeleteByID(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete employee %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *employeeRepository) list(ctx context.Context, query string, args ...any) ([]models.Employee, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	result := make([]models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("list employees: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return result, nil
}

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Password, &e.Phone, &e.Department, &e.Role, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
