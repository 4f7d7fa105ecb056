package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, member_id, loan_id, kind, amount::text, date, note, receipt_key, created_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount string
	err := row.Scan(&p.ID, &p.MemberID, &p.LoanID, &p.Kind, &amount,
		&p.Date, &p.Note, &p.ReceiptKey, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount = scanDecimal(amount)
	return &p, nil
}

// Create creates a new payment
func (r *PaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO payments (member_id, loan_id, kind, amount, date, note, receipt_key)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING `+paymentColumns,
		payment.MemberID, payment.LoanID, payment.Kind, payment.Amount.String(),
		payment.Date, payment.Note, payment.ReceiptKey)
	return scanPayment(row)
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// List returns all payments, newest first
func (r *PaymentRepository) List() ([]*domain.Payment, error) {
	return r.query(`SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`)
}

// ListByMember returns a member's payments, newest first
func (r *PaymentRepository) ListByMember(memberID uuid.UUID) ([]*domain.Payment, error) {
	return r.query(
		`SELECT `+paymentColumns+` FROM payments WHERE member_id = $1 ORDER BY created_at DESC`,
		memberID)
}

func (r *PaymentRepository) query(sql string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
