package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/expense-api/internal/auth"
	"github.com/hongminglow/expense-api/internal/events"
	"github.com/hongminglow/expense-api/internal/expenses"
	"github.com/hongminglow/expense-api/internal/models/dto"
	"github.com/hongminglow/expense-api/internal/storage/memory"
)

type apiSuite struct {
	suite.Suite
	srv *httptest.Server
}

func (s *apiSuite) SetupTest() {
	store := memory.New()
	tokens := auth.NewTokenManager("handler-secret", "expense-api-test", time.Hour)
	users := auth.NewDirectory(store)

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(auth.NewService(users, tokens), false).Register(mux)
	NewExpenseHandler(expenses.NewService(store, events.Nop{}), auth.NewGuard(tokens, users), false).Register(mux)
	s.srv = httptest.NewServer(mux)
}

func (s *apiSuite) TearDownTest() {
	s.srv.Close()
}

func (s *apiSuite) do(method, path, token string, body any) (*http.Response, []byte) {
	s.T().Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	s.Require().NoError(err)
	return resp, buf.Bytes()
}

func (s *apiSuite) signup(name, email string) dto.AuthResponse {
	resp, raw := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "pa55word",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.AuthResponse
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *apiSuite) createExpense(token string, body map[string]any) map[string]any {
	resp, raw := s.do(http.MethodPost, "/api/expenses", token, body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var out map[string]any
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *apiSuite) assertError(raw []byte, message string) {
	s.T().Helper()
	var body map[string]any
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal(false, body["success"])
	s.Equal(message, body["message"])
}

func (s *apiSuite) TestHealth() {
	resp, raw := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), `"status":"ok"`)
}

func (s *apiSuite) TestSignupAndLogin() {
	created := s.signup("Ada", "ada@example.com")
	s.NotEmpty(created.Token)
	s.Equal("ada@example.com", created.Email)

	resp, raw := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "pa55word"})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotContains(string(raw), "password")

	resp, raw = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.assertError(raw, "Invalid email or password.")

	resp, raw = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Ada", "email": "ADA@example.com", "password": "x"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Email is already in use.")

	resp, raw = s.do(http.MethodPost, "/api/auth/signup", "", `{"name":`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "invalid JSON payload")

	resp, raw = s.do(http.MethodPost, "/api/auth/signup", "", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Name, email, and password are required.")
}

func (s *apiSuite) TestExpensesRequireToken() {
	resp, raw := s.do(http.MethodGet, "/api/expenses", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.assertError(raw, "Not authorized, no token")

	resp, raw = s.do(http.MethodGet, "/api/expenses", "garbage", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.assertError(raw, "Invalid authentication token.")
}

func (s *apiSuite) TestExpenseLifecycle() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	created := s.createExpense(alice.Token, map[string]any{
		"title": "Groceries run", "amount": 25.5, "category": "Groceries", "date": "2024-05-01",
	})
	id := created["id"].(string)
	s.Equal(alice.ID.String(), created["userId"])
	s.Equal(25.5, created["amount"])

	resp, _ := s.do(http.MethodGet, "/api/expenses/"+id, alice.Token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/api/expenses/"+id, bob.Token, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.assertError(raw, "Not authorized to access this expense")

	resp, raw = s.do(http.MethodGet, "/api/expenses/not-a-uuid", alice.Token, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.assertError(raw, "Expense not found")

	resp, _ = s.do(http.MethodPut, "/api/expenses/"+id, bob.Token, map[string]any{"title": "Stolen"})
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, raw = s.do(http.MethodPut, "/api/expenses/"+id, alice.Token, map[string]any{"title": "Big groceries run", "amount": 0})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var updated map[string]any
	s.Require().NoError(json.Unmarshal(raw, &updated))
	s.Equal("Big groceries run", updated["title"])
	s.Equal(25.5, updated["amount"])

	resp, _ = s.do(http.MethodDelete, "/api/expenses/"+id, bob.Token, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, raw = s.do(http.MethodDelete, "/api/expenses/"+id, alice.Token, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Empty(raw)

	resp, _ = s.do(http.MethodDelete, "/api/expenses/"+id, alice.Token, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *apiSuite) TestCreateValidation() {
	alice := s.signup("Alice", "alice@example.com")

	resp, raw := s.do(http.MethodPost, "/api/expenses", alice.Token, map[string]any{"title": "No amount", "category": "Others", "date": "2024-05-01"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Title, amount, category and date are required fields.")

	resp, raw = s.do(http.MethodPost, "/api/expenses", alice.Token, map[string]any{"title": "Tiny", "amount": 0.009, "category": "Others", "date": "2024-05-01"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Amount must be a positive value.")

	resp, _ = s.do(http.MethodPost, "/api/expenses", alice.Token, map[string]any{"title": "Cent", "amount": 0.01, "category": "Others", "date": "2024-05-01"})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp, raw = s.do(http.MethodPost, "/api/expenses", alice.Token, map[string]any{"title": "Bad", "amount": 3, "category": "others", "date": "2024-05-01"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Invalid category. Must be one of: Groceries, Leisure, Electronics, Utilities, Clothing, Health, Others")
}

func (s *apiSuite) TestEmptyAmountMeansNotProvided() {
	alice := s.signup("Alice", "alice@example.com")

	resp, raw := s.do(http.MethodPost, "/api/expenses", alice.Token, `{"title":"T","amount":"","category":"Others","date":"2024-05-01"}`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Title, amount, category and date are required fields.")

	created := s.createExpense(alice.Token, map[string]any{"title": "Quoted", "amount": "7.25", "category": "Others", "date": "2024-05-01"})
	s.Equal(7.25, created["amount"])
	id := created["id"].(string)

	for _, body := range []string{`{"title":"New","amount":""}`, `{"title":"Newer","amount":null}`} {
		resp, raw = s.do(http.MethodPut, "/api/expenses/"+id, alice.Token, body)
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
		var updated map[string]any
		s.Require().NoError(json.Unmarshal(raw, &updated))
		s.Equal(7.25, updated["amount"], body)
	}
}

func (s *apiSuite) TestHugePageReturnsEmptyPage() {
	alice := s.signup("Alice", "alice@example.com")
	s.createExpense(alice.Token, map[string]any{"title": "Only", "amount": 1, "category": "Others", "date": "2024-05-01"})

	resp, raw := s.do(http.MethodGet, "/api/expenses?page=100000000000000000&limit=100", alice.Token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	var list struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Empty(list.Data)
	s.Equal(1, list.Total)
}

func (s *apiSuite) TestListFiltersAndPagination() {
	alice := s.signup("Alice", "alice@example.com")
	for day := 1; day <= 3; day++ {
		s.createExpense(alice.Token, map[string]any{
			"title": fmt.Sprintf("Day %d", day), "amount": 10, "category": "Leisure",
			"date": fmt.Sprintf("2024-04-%02d", day),
		})
	}
	s.createExpense(alice.Token, map[string]any{"title": "Pills", "amount": 4, "category": "Health", "date": "2024-04-02"})

	resp, raw := s.do(http.MethodGet, "/api/expenses?category=Leisure&page=2&limit=2", alice.Token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var list struct {
		Data  []map[string]any `json:"data"`
		Page  int              `json:"page"`
		Limit int              `json:"limit"`
		Total int              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Equal(2, list.Page)
	s.Equal(2, list.Limit)
	s.Equal(3, list.Total)
	s.Require().Len(list.Data, 1)
	s.Equal("Day 1", list.Data[0]["title"])

	resp, raw = s.do(http.MethodGet, "/api/expenses?timeTerm=custom&startDate=2024-04-02&endDate=2024-04-02&page=abc", alice.Token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Equal(1, list.Page)
	s.Equal(2, list.Total)

	resp, raw = s.do(http.MethodGet, "/api/expenses?timeTerm=custom&startDate=whenever", alice.Token, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.assertError(raw, "Invalid startDate.")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(apiSuite))
}

func TestHandleRendersDebugStack(t *testing.T) {
	h := handle(true, func(http.ResponseWriter, *http.Request) error {
		return fmt.Errorf("wrapped: %w", assert.AnError)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Contains(t, body["stack"], "wrapped")
}
