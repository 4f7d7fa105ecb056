package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

func newMemberHandler() (*MemberHandler, *testutil.MockMemberRepository, *testutil.MockLoanRepository) {
	memberRepo := testutil.NewMockMemberRepository()
	loanRepo := testutil.NewMockLoanRepository()
	memberService := service.NewMemberService(memberRepo, loanRepo)
	paymentService := service.NewPaymentService(
		testutil.NewMockPaymentRepository(), memberRepo, loanRepo,
		testutil.NewMockSettingsRepository(), testutil.NewRecordingNotifier(), zerolog.Nop())
	return NewMemberHandler(memberService, paymentService), memberRepo, loanRepo
}

func TestCreateMember_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newMemberHandler()

	reqBody := `{"fullName": "علی رضایی", "phone": "۰۹۱۲۳۴۵۶۷۸۹"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateMember(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response MemberResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.FullName != "علی رضایی" {
		t.Errorf("Expected full name 'علی رضایی', got %s", response.FullName)
	}
	if response.Phone != "09123456789" {
		t.Errorf("Expected normalized phone '09123456789', got %s", response.Phone)
	}
}

func TestCreateMember_MissingName(t *testing.T) {
	e := echo.New()
	handler, _, _ := newMemberHandler()

	reqBody := `{"phone": "09123456789"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateMember(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetMember_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newMemberHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

	if err := handler.GetMember(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetMember_InvalidID(t *testing.T) {
	e := echo.New()
	handler, _, _ := newMemberHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := handler.GetMember(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteMember_ActiveLoanConflict(t *testing.T) {
	e := echo.New()
	handler, memberRepo, loanRepo := newMemberHandler()

	member, err := memberRepo.Create(&domain.Member{
		FullName: "علی رضایی",
		Phone:    "09123456789",
	})
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	if _, err := loanRepo.Create(&domain.Loan{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(5000000),
		Date:      "1402-01-15",
		DueMonths: 10,
		Status:    domain.LoanStatusActive,
	}); err != nil {
		t.Fatalf("Failed to seed loan: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/members/"+member.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(member.ID.String())

	if err := handler.DeleteMember(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetMembers_Empty(t *testing.T) {
	e := echo.New()
	handler, _, _ := newMemberHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetMembers(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []MemberResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 0 {
		t.Errorf("Expected empty list, got %d members", len(response))
	}
}
