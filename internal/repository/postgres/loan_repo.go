package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL.
// Reminder bookkeeping lives in a jsonb column so the stage keys stay
// schema-free.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, member_id, amount::text, date, due_months, status,
	reminder_sent, notes, created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	var amount string
	var reminderSent []byte
	err := row.Scan(&l.ID, &l.MemberID, &amount, &l.Date, &l.DueMonths, &l.Status,
		&reminderSent, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Amount = scanDecimal(amount)
	l.ReminderSent = domain.ReminderSent{}
	if len(reminderSent) > 0 {
		if err := json.Unmarshal(reminderSent, &l.ReminderSent); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	sent, err := json.Marshal(loan.ReminderSent)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO loans (member_id, amount, date, due_months, status, reminder_sent, notes)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING `+loanColumns,
		loan.MemberID, loan.Amount.String(), loan.Date, loan.DueMonths,
		loan.Status, sent, loan.Notes)
	return scanLoan(row)
}

// GetByID retrieves a loan by ID
func (r *LoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List returns all loans, newest first
func (r *LoanRepository) List() ([]*domain.Loan, error) {
	return r.query(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)
}

// ListActive returns all loans with active status
func (r *LoanRepository) ListActive() ([]*domain.Loan, error) {
	return r.query(`SELECT ` + loanColumns + ` FROM loans WHERE status = 'active' ORDER BY created_at`)
}

func (r *LoanRepository) query(sql string, args ...any) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// Update updates an existing loan
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	sent, err := json.Marshal(loan.ReminderSent)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		UPDATE loans
		SET amount = $2::numeric, date = $3, due_months = $4, status = $5,
		    reminder_sent = $6, notes = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+loanColumns,
		loan.ID, loan.Amount.String(), loan.Date, loan.DueMonths,
		loan.Status, sent, loan.Notes)
	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateReminderSent persists only the reminder bookkeeping of a loan
func (r *LoanRepository) UpdateReminderSent(id uuid.UUID, sent domain.ReminderSent) error {
	data, err := json.Marshal(sent)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE loans SET reminder_sent = $2, updated_at = now() WHERE id = $1`,
		id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// SetStatus updates a loan's status
func (r *LoanRepository) SetStatus(id uuid.UUID, status domain.LoanStatus) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// CountActiveByMember counts a member's active loans
func (r *LoanRepository) CountActiveByMember(memberID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM loans WHERE member_id = $1 AND status = 'active'`,
		memberID).Scan(&count)
	return count, err
}
