package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

func newLoanHandler() (*LoanHandler, *testutil.MockMemberRepository, *testutil.MockLoanRepository) {
	memberRepo := testutil.NewMockMemberRepository()
	loanRepo := testutil.NewMockLoanRepository()
	loanService := service.NewLoanService(loanRepo, memberRepo)
	return NewLoanHandler(loanService), memberRepo, loanRepo
}

func seedMember(t *testing.T, memberRepo *testutil.MockMemberRepository) *domain.Member {
	t.Helper()
	member, err := memberRepo.Create(&domain.Member{
		FullName: "مریم احمدی",
		Phone:    "09121112233",
	})
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	return member
}

func TestCreateLoan_Success(t *testing.T) {
	e := echo.New()
	handler, memberRepo, _ := newLoanHandler()
	member := seedMember(t, memberRepo)

	reqBody := fmt.Sprintf(`{"memberId": "%s", "amount": "12000000", "date": "1402-01-15", "dueMonths": 12}`, member.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Amount != "12000000" {
		t.Errorf("Expected amount '12000000', got %s", response.Amount)
	}
	if response.Status != string(domain.LoanStatusActive) {
		t.Errorf("Expected status 'active', got %s", response.Status)
	}
	if response.ReminderSent == nil {
		t.Error("Expected reminderSent to be an empty map, got null")
	}
}

func TestCreateLoan_InvalidDate(t *testing.T) {
	e := echo.New()
	handler, memberRepo, _ := newLoanHandler()
	member := seedMember(t, memberRepo)

	reqBody := fmt.Sprintf(`{"memberId": "%s", "amount": "12000000", "date": "1402-13-40", "dueMonths": 12}`, member.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateLoan_SecondActiveLoanConflict(t *testing.T) {
	e := echo.New()
	handler, memberRepo, _ := newLoanHandler()
	member := seedMember(t, memberRepo)

	for i, wantCode := range []int{http.StatusCreated, http.StatusConflict} {
		reqBody := fmt.Sprintf(`{"memberId": "%s", "amount": "5000000", "date": "1402-01-15", "dueMonths": 10}`, member.ID)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler.CreateLoan(c); err != nil {
			t.Fatalf("Request %d: expected no error, got %v", i, err)
		}
		if rec.Code != wantCode {
			t.Errorf("Request %d: expected status %d, got %d", i, wantCode, rec.Code)
		}
	}
}

func TestCreateLoan_UnknownMember(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanHandler()

	reqBody := `{"memberId": "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "amount": "5000000", "date": "1402-01-15", "dueMonths": 10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetLoanSchedule(t *testing.T) {
	e := echo.New()
	handler, memberRepo, loanRepo := newLoanHandler()
	member := seedMember(t, memberRepo)

	loanService := service.NewLoanService(loanRepo, memberRepo)
	loan, err := loanService.Create(service.CreateLoanInput{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(12000000),
		Date:      "1402-01-15",
		DueMonths: 12,
	})
	if err != nil {
		t.Fatalf("Failed to seed loan: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/"+loan.ID.String()+"/schedule", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID.String())

	if err := handler.GetLoanSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []ScheduleEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 12 {
		t.Fatalf("Expected 12 schedule entries, got %d", len(response))
	}
	if response[0].DueDate != "1402-02-15" {
		t.Errorf("Expected first due date '1402-02-15', got %s", response[0].DueDate)
	}
	if response[0].MonthNum != 1 {
		t.Errorf("Expected first month number 1, got %d", response[0].MonthNum)
	}
}

func TestSettleLoan(t *testing.T) {
	e := echo.New()
	handler, memberRepo, loanRepo := newLoanHandler()
	member := seedMember(t, memberRepo)

	loanService := service.NewLoanService(loanRepo, memberRepo)
	loan, err := loanService.Create(service.CreateLoanInput{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(5000000),
		Date:      "1402-01-15",
		DueMonths: 10,
	})
	if err != nil {
		t.Fatalf("Failed to seed loan: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/settle", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID.String())

	if err := handler.SettleLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	settled, err := loanRepo.GetByID(loan.ID)
	if err != nil {
		t.Fatalf("Failed to reload loan: %v", err)
	}
	if settled.Status != domain.LoanStatusSettled {
		t.Errorf("Expected status 'settled', got %s", settled.Status)
	}
}
