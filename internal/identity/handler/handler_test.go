package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ballotgate/internal/identity/models"
	"ballotgate/internal/identity/password"
	"ballotgate/internal/identity/service"
	"ballotgate/internal/jwttoken"
	"ballotgate/internal/platform/logger"
	"ballotgate/internal/storage"
)

type IdentityHandlerSuite struct {
	suite.Suite
	router *chi.Mux
}

func (s *IdentityHandlerSuite) SetupTest() {
	log := logger.New()
	tokens, err := jwttoken.NewService("test-signing-key", "ballotgate-test", 30*time.Minute)
	s.Require().NoError(err)

	svc := service.NewService(storage.NewMemoryIdentityStore(), password.NewHasher(4), tokens, nil, nil, log)
	h := New(svc, jwttoken.NewMiddlewareAdapter(tokens), log)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *IdentityHandlerSuite) signup(nationalID string) models.SignupResult {
	rec := s.do(http.MethodPost, "/identity/signup", "", models.SignupRequest{
		Name:       "Asha Rao",
		Age:        34,
		Address:    "12 Hill Road",
		NationalID: nationalID,
		Password:   "pw1",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result models.SignupResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func (s *IdentityHandlerSuite) TestSignupAndLogin() {
	result := s.signup("1111")
	s.NotEmpty(result.Token)
	s.Equal("1111", result.Record.NationalID)

	rec := s.do(http.MethodPost, "/identity/login", "", models.LoginRequest{
		NationalID: "1111",
		Password:   "pw1",
	})
	s.Equal(http.StatusOK, rec.Code)

	var login models.LoginResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &login))
	s.NotEmpty(login.Token)
}

func (s *IdentityHandlerSuite) TestSignupDuplicateNationalID() {
	s.signup("1111")
	rec := s.do(http.MethodPost, "/identity/signup", "", models.SignupRequest{
		Name:       "Second",
		Age:        40,
		Address:    "9 Lake View",
		NationalID: "1111",
		Password:   "pw2",
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *IdentityHandlerSuite) TestSignupMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/identity/signup", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *IdentityHandlerSuite) TestLoginBadCredentials() {
	s.signup("1111")
	rec := s.do(http.MethodPost, "/identity/login", "", models.LoginRequest{
		NationalID: "1111",
		Password:   "wrong",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *IdentityHandlerSuite) TestProfileRequiresToken() {
	rec := s.do(http.MethodGet, "/identity/profile", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/identity/profile", "garbage-token", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *IdentityHandlerSuite) TestProfileRoundTrip() {
	result := s.signup("1111")

	rec := s.do(http.MethodGet, "/identity/profile", result.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var record models.IdentityRecord
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	s.Equal("Asha Rao", record.Name)
	s.Equal(result.Record.ID, record.ID)
	s.NotContains(rec.Body.String(), "password")
}

func (s *IdentityHandlerSuite) TestChangePassword() {
	result := s.signup("1111")

	rec := s.do(http.MethodPut, "/identity/profile/password", result.Token, models.ChangePasswordRequest{
		CurrentPassword: "pw1",
		NewPassword:     "fresh-pass",
	})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/identity/login", "", models.LoginRequest{
		NationalID: "1111",
		Password:   "fresh-pass",
	})
	s.Equal(http.StatusOK, rec.Code)
}
