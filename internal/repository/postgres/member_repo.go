package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// MemberRepository implements domain.MemberRepository using PostgreSQL
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

const memberColumns = `id, full_name, phone, telegram_chat_id,
	deposit_balance::text, loan_balance::text, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var deposit, loan string
	err := row.Scan(&m.ID, &m.FullName, &m.Phone, &m.TelegramChatID,
		&deposit, &loan, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.DepositBalance = scanDecimal(deposit)
	m.LoanBalance = scanDecimal(loan)
	return &m, nil
}

// Create creates a new member
func (r *MemberRepository) Create(member *domain.Member) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO members (full_name, phone, telegram_chat_id, deposit_balance, loan_balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+memberColumns,
		member.FullName, member.Phone, member.TelegramChatID,
		member.DepositBalance.String(), member.LoanBalance.String())
	created, err := scanMember(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrMemberPhoneTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(id uuid.UUID) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// GetByPhone retrieves a member by phone number
func (r *MemberRepository) GetByPhone(phone string) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+memberColumns+` FROM members WHERE phone = $1`, phone)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// GetByTelegramChatID retrieves a member by their linked Telegram chat
func (r *MemberRepository) GetByTelegramChatID(chatID string) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+memberColumns+` FROM members WHERE telegram_chat_id = $1`, chatID)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// List returns all members ordered by name
func (r *MemberRepository) List() ([]*domain.Member, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+memberColumns+` FROM members ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Update updates an existing member
func (r *MemberRepository) Update(member *domain.Member) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(), `
		UPDATE members
		SET full_name = $2, phone = $3, telegram_chat_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns,
		member.ID, member.FullName, member.Phone, member.TelegramChatID)
	updated, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrMemberPhoneTaken
		}
		return nil, err
	}
	return updated, nil
}

// SetTelegramChatID sets a member's Telegram chat ID
func (r *MemberRepository) SetTelegramChatID(id uuid.UUID, chatID string) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE members SET telegram_chat_id = $2, updated_at = now() WHERE id = $1`,
		id, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

// AdjustBalances atomically applies signed deltas to the member's balances
func (r *MemberRepository) AdjustBalances(id uuid.UUID, depositDelta, loanDelta decimal.Decimal) (*domain.Member, error) {
	row := r.pool.QueryRow(context.Background(), `
		UPDATE members
		SET deposit_balance = deposit_balance + $2::numeric,
		    loan_balance = loan_balance + $3::numeric,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns,
		id, depositDelta.String(), loanDelta.String())
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// Delete removes a member
func (r *MemberRepository) Delete(id uuid.UUID) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
