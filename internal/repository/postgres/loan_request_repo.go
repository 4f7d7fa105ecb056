package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// LoanRequestRepository implements domain.LoanRequestRepository using PostgreSQL
type LoanRequestRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRequestRepository creates a new LoanRequestRepository
func NewLoanRequestRepository(pool *pgxpool.Pool) *LoanRequestRepository {
	return &LoanRequestRepository{pool: pool}
}

const requestColumns = `id, member_id, telegram_chat_id, amount::text, due_months, status, created_at`

func scanRequest(row pgx.Row) (*domain.LoanRequest, error) {
	var lr domain.LoanRequest
	var amount string
	err := row.Scan(&lr.ID, &lr.MemberID, &lr.TelegramChatID, &amount,
		&lr.DueMonths, &lr.Status, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	lr.Amount = scanDecimal(amount)
	return &lr, nil
}

// Create creates a new loan request
func (r *LoanRequestRepository) Create(request *domain.LoanRequest) (*domain.LoanRequest, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO loan_requests (member_id, telegram_chat_id, amount, due_months, status)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING `+requestColumns,
		request.MemberID, request.TelegramChatID, request.Amount.String(),
		request.DueMonths, request.Status)
	return scanRequest(row)
}

// GetByID retrieves a loan request by ID
func (r *LoanRequestRepository) GetByID(id uuid.UUID) (*domain.LoanRequest, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+requestColumns+` FROM loan_requests WHERE id = $1`, id)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// List returns all loan requests, newest first
func (r *LoanRequestRepository) List() ([]*domain.LoanRequest, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+requestColumns+` FROM loan_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.LoanRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// SetStatus updates a loan request's status
func (r *LoanRequestRepository) SetStatus(id uuid.UUID, status domain.RequestStatus) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE loan_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}
