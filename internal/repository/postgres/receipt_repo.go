package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// ReceiptRepository implements domain.ReceiptSubmissionRepository using PostgreSQL
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository creates a new ReceiptRepository
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

const receiptColumns = `id, member_id, amount::text, date, image_key, thumbnail_key, status, note, created_at`

func scanReceipt(row pgx.Row) (*domain.ReceiptSubmission, error) {
	var rs domain.ReceiptSubmission
	var amount string
	err := row.Scan(&rs.ID, &rs.MemberID, &amount, &rs.Date, &rs.ImageKey,
		&rs.ThumbnailKey, &rs.Status, &rs.Note, &rs.CreatedAt)
	if err != nil {
		return nil, err
	}
	rs.Amount = scanDecimal(amount)
	return &rs, nil
}

// Create creates a new receipt submission
func (r *ReceiptRepository) Create(submission *domain.ReceiptSubmission) (*domain.ReceiptSubmission, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO receipt_submissions (member_id, amount, date, image_key, thumbnail_key, status, note)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING `+receiptColumns,
		submission.MemberID, submission.Amount.String(), submission.Date,
		submission.ImageKey, submission.ThumbnailKey, submission.Status, submission.Note)
	return scanReceipt(row)
}

// GetByID retrieves a receipt submission by ID
func (r *ReceiptRepository) GetByID(id uuid.UUID) (*domain.ReceiptSubmission, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+receiptColumns+` FROM receipt_submissions WHERE id = $1`, id)
	submission, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return submission, nil
}

// List returns all receipt submissions, newest first
func (r *ReceiptRepository) List() ([]*domain.ReceiptSubmission, error) {
	return r.query(`SELECT ` + receiptColumns + ` FROM receipt_submissions ORDER BY created_at DESC`)
}

// ListPending returns submissions awaiting review, oldest first
func (r *ReceiptRepository) ListPending() ([]*domain.ReceiptSubmission, error) {
	return r.query(`SELECT ` + receiptColumns + ` FROM receipt_submissions WHERE status = 'pending' ORDER BY created_at`)
}

func (r *ReceiptRepository) query(sql string, args ...any) ([]*domain.ReceiptSubmission, error) {
	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*domain.ReceiptSubmission
	for rows.Next() {
		submission, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

// SetStatus updates a receipt submission's status
func (r *ReceiptRepository) SetStatus(id uuid.UUID, status domain.RequestStatus) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE receipt_submissions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}
