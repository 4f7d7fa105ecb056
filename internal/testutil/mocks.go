package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// MockMemberRepository is a mock implementation of domain.MemberRepository
type MockMemberRepository struct {
	Members map[uuid.UUID]*domain.Member
}

// NewMockMemberRepository creates a new MockMemberRepository
func NewMockMemberRepository() *MockMemberRepository {
	return &MockMemberRepository{
		Members: make(map[uuid.UUID]*domain.Member),
	}
}

// Create creates a new member
func (m *MockMemberRepository) Create(member *domain.Member) (*domain.Member, error) {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	m.Members[member.ID] = member
	return member, nil
}

// GetByID retrieves a member by ID
func (m *MockMemberRepository) GetByID(id uuid.UUID) (*domain.Member, error) {
	if member, ok := m.Members[id]; ok {
		return member, nil
	}
	return nil, domain.ErrMemberNotFound
}

// GetByPhone retrieves a member by phone number
func (m *MockMemberRepository) GetByPhone(phone string) (*domain.Member, error) {
	for _, member := range m.Members {
		if member.Phone == phone {
			return member, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

// GetByTelegramChatID retrieves a member by Telegram chat ID
func (m *MockMemberRepository) GetByTelegramChatID(chatID string) (*domain.Member, error) {
	for _, member := range m.Members {
		if member.TelegramChatID == chatID {
			return member, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

// List returns all members
func (m *MockMemberRepository) List() ([]*domain.Member, error) {
	members := make([]*domain.Member, 0, len(m.Members))
	for _, member := range m.Members {
		members = append(members, member)
	}
	return members, nil
}

// Update updates an existing member
func (m *MockMemberRepository) Update(member *domain.Member) (*domain.Member, error) {
	if _, ok := m.Members[member.ID]; !ok {
		return nil, domain.ErrMemberNotFound
	}
	member.UpdatedAt = time.Now()
	m.Members[member.ID] = member
	return member, nil
}

// SetTelegramChatID sets a member's Telegram chat ID
func (m *MockMemberRepository) SetTelegramChatID(id uuid.UUID, chatID string) error {
	member, ok := m.Members[id]
	if !ok {
		return domain.ErrMemberNotFound
	}
	member.TelegramChatID = chatID
	return nil
}

// AdjustBalances applies signed deltas to the member's balances
func (m *MockMemberRepository) AdjustBalances(id uuid.UUID, depositDelta, loanDelta decimal.Decimal) (*domain.Member, error) {
	member, ok := m.Members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	member.DepositBalance = member.DepositBalance.Add(depositDelta)
	member.LoanBalance = member.LoanBalance.Add(loanDelta)
	member.UpdatedAt = time.Now()
	return member, nil
}

// Delete removes a member
func (m *MockMemberRepository) Delete(id uuid.UUID) error {
	if _, ok := m.Members[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(m.Members, id)
	return nil
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans map[uuid.UUID]*domain.Loan

	// ReminderUpdates counts UpdateReminderSent calls so tests can assert
	// how many times state was persisted during a sweep.
	ReminderUpdates int
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans: make(map[uuid.UUID]*domain.Loan),
	}
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	if loan.Status == "" {
		loan.Status = domain.LoanStatusActive
	}
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// List returns all loans
func (m *MockLoanRepository) List() ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0, len(m.Loans))
	for _, loan := range m.Loans {
		loans = append(loans, loan)
	}
	return loans, nil
}

// ListActive returns all loans with active status
func (m *MockLoanRepository) ListActive() ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for _, loan := range m.Loans {
		if loan.Status == domain.LoanStatusActive {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// Update updates an existing loan
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// UpdateReminderSent persists only the reminder bookkeeping of a loan
func (m *MockLoanRepository) UpdateReminderSent(id uuid.UUID, sent domain.ReminderSent) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.ReminderSent = sent
	m.ReminderUpdates++
	return nil
}

// SetStatus updates a loan's status
func (m *MockLoanRepository) SetStatus(id uuid.UUID, status domain.LoanStatus) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = status
	return nil
}

// CountActiveByMember counts a member's active loans
func (m *MockLoanRepository) CountActiveByMember(memberID uuid.UUID) (int64, error) {
	var count int64
	for _, loan := range m.Loans {
		if loan.MemberID == memberID && loan.Status == domain.LoanStatusActive {
			count++
		}
	}
	return count, nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[uuid.UUID]*domain.Payment
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[uuid.UUID]*domain.Payment),
	}
}

// Create creates a new payment
func (m *MockPaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// List returns all payments
func (m *MockPaymentRepository) List() ([]*domain.Payment, error) {
	payments := make([]*domain.Payment, 0, len(m.Payments))
	for _, payment := range m.Payments {
		payments = append(payments, payment)
	}
	return payments, nil
}

// ListByMember returns all payments for a member
func (m *MockPaymentRepository) ListByMember(memberID uuid.UUID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for _, payment := range m.Payments {
		if payment.MemberID == memberID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// MockLoanRequestRepository is a mock implementation of domain.LoanRequestRepository
type MockLoanRequestRepository struct {
	Requests map[uuid.UUID]*domain.LoanRequest
}

// NewMockLoanRequestRepository creates a new MockLoanRequestRepository
func NewMockLoanRequestRepository() *MockLoanRequestRepository {
	return &MockLoanRequestRepository{
		Requests: make(map[uuid.UUID]*domain.LoanRequest),
	}
}

// Create creates a new loan request
func (m *MockLoanRequestRepository) Create(request *domain.LoanRequest) (*domain.LoanRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}
	request.CreatedAt = time.Now()
	m.Requests[request.ID] = request
	return request, nil
}

// GetByID retrieves a loan request by ID
func (m *MockLoanRequestRepository) GetByID(id uuid.UUID) (*domain.LoanRequest, error) {
	if request, ok := m.Requests[id]; ok {
		return request, nil
	}
	return nil, domain.ErrRequestNotFound
}

// List returns all loan requests
func (m *MockLoanRequestRepository) List() ([]*domain.LoanRequest, error) {
	requests := make([]*domain.LoanRequest, 0, len(m.Requests))
	for _, request := range m.Requests {
		requests = append(requests, request)
	}
	return requests, nil
}

// SetStatus updates a loan request's status
func (m *MockLoanRequestRepository) SetStatus(id uuid.UUID, status domain.RequestStatus) error {
	request, ok := m.Requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	request.Status = status
	return nil
}

// MockReceiptSubmissionRepository is a mock implementation of domain.ReceiptSubmissionRepository
type MockReceiptSubmissionRepository struct {
	Submissions map[uuid.UUID]*domain.ReceiptSubmission
}

// NewMockReceiptSubmissionRepository creates a new MockReceiptSubmissionRepository
func NewMockReceiptSubmissionRepository() *MockReceiptSubmissionRepository {
	return &MockReceiptSubmissionRepository{
		Submissions: make(map[uuid.UUID]*domain.ReceiptSubmission),
	}
}

// Create creates a new receipt submission
func (m *MockReceiptSubmissionRepository) Create(submission *domain.ReceiptSubmission) (*domain.ReceiptSubmission, error) {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if submission.Status == "" {
		submission.Status = domain.RequestStatusPending
	}
	submission.CreatedAt = time.Now()
	m.Submissions[submission.ID] = submission
	return submission, nil
}

// GetByID retrieves a receipt submission by ID
func (m *MockReceiptSubmissionRepository) GetByID(id uuid.UUID) (*domain.ReceiptSubmission, error) {
	if submission, ok := m.Submissions[id]; ok {
		return submission, nil
	}
	return nil, domain.ErrReceiptNotFound
}

// List returns all receipt submissions
func (m *MockReceiptSubmissionRepository) List() ([]*domain.ReceiptSubmission, error) {
	submissions := make([]*domain.ReceiptSubmission, 0, len(m.Submissions))
	for _, submission := range m.Submissions {
		submissions = append(submissions, submission)
	}
	return submissions, nil
}

// ListPending returns receipt submissions awaiting review
func (m *MockReceiptSubmissionRepository) ListPending() ([]*domain.ReceiptSubmission, error) {
	var submissions []*domain.ReceiptSubmission
	for _, submission := range m.Submissions {
		if submission.Status == domain.RequestStatusPending {
			submissions = append(submissions, submission)
		}
	}
	return submissions, nil
}

// SetStatus updates a receipt submission's status
func (m *MockReceiptSubmissionRepository) SetStatus(id uuid.UUID, status domain.RequestStatus) error {
	submission, ok := m.Submissions[id]
	if !ok {
		return domain.ErrReceiptNotFound
	}
	submission.Status = status
	return nil
}

// MockSettingsRepository is a mock implementation of domain.SettingsRepository
type MockSettingsRepository struct {
	Settings *domain.TelegramSettings
}

// NewMockSettingsRepository creates a new MockSettingsRepository with defaults
func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		Settings: domain.DefaultTelegramSettings(),
	}
}

// Get returns the current settings
func (m *MockSettingsRepository) Get() (*domain.TelegramSettings, error) {
	return m.Settings, nil
}

// Save stores the settings
func (m *MockSettingsRepository) Save(settings *domain.TelegramSettings) (*domain.TelegramSettings, error) {
	m.Settings = settings
	return settings, nil
}

// SetOverdueListLastSentDate updates only the digest gate
func (m *MockSettingsRepository) SetOverdueListLastSentDate(date string) error {
	m.Settings.OverdueListLastSentDate = date
	return nil
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByUsername retrieves a user by username
func (m *MockUserRepository) GetByUsername(username string) (*domain.User, error) {
	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// SentMessage is one message captured by the RecordingNotifier.
type SentMessage struct {
	Target string
	Text   string
}

// RecordingNotifier is a domain.Notifier that records every message instead
// of delivering it. FailFor makes sends to specific targets fail, so tests
// can exercise the mark-as-attempted behavior.
type RecordingNotifier struct {
	mu      sync.Mutex
	Sent    []SentMessage
	FailFor map[string]error
}

// NewRecordingNotifier creates a new RecordingNotifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		FailFor: make(map[string]error),
	}
}

// SendMessage records the message, or fails if the target is in FailFor
func (n *RecordingNotifier) SendMessage(_ context.Context, target, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.FailFor[target]; ok {
		return err
	}
	n.Sent = append(n.Sent, SentMessage{Target: target, Text: text})
	return nil
}

// CountFor returns how many messages were sent to a target
func (n *RecordingNotifier) CountFor(target string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.Sent {
		if msg.Target == target {
			count++
		}
	}
	return count
}

// Reset clears recorded messages
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = nil
}
