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

	electionModel "ballotgate/internal/election/models"
	electionService "ballotgate/internal/election/service"
	identityHandler "ballotgate/internal/identity/handler"
	identityModel "ballotgate/internal/identity/models"
	"ballotgate/internal/identity/password"
	identityService "ballotgate/internal/identity/service"
	"ballotgate/internal/jwttoken"
	"ballotgate/internal/platform/logger"
	"ballotgate/internal/storage"
)

// The suite wires real services over the memory stores so the handler tests
// double as end-to-end scenarios for the whole vote flow.
type ElectionHandlerSuite struct {
	suite.Suite
	router     *chi.Mux
	adminToken string
}

func (s *ElectionHandlerSuite) SetupTest() {
	log := logger.New()
	tokens, err := jwttoken.NewService("test-signing-key", "ballotgate-test", 30*time.Minute)
	s.Require().NoError(err)
	validator := jwttoken.NewMiddlewareAdapter(tokens)

	identities := storage.NewMemoryIdentityStore()
	candidates := storage.NewMemoryCandidateStore()
	ledger := storage.NewMemoryLedger(identities, candidates)

	idSvc := identityService.NewService(identities, password.NewHasher(4), tokens, nil, nil, log)
	elSvc := electionService.NewService(candidates, ledger, idSvc, nil, nil, nil, log)

	s.router = chi.NewRouter()
	identityHandler.New(idSvc, validator, log).Register(s.router)
	New(elSvc, validator, log).Register(s.router)

	s.adminToken = s.signup("9999", "admin")
}

func TestElectionHandlerSuite(t *testing.T) {
	suite.Run(t, new(ElectionHandlerSuite))
}

func (s *ElectionHandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
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

func (s *ElectionHandlerSuite) signup(nationalID, role string) string {
	rec := s.do(http.MethodPost, "/identity/signup", "", identityModel.SignupRequest{
		Name:       "Identity " + nationalID,
		Age:        34,
		Address:    "12 Hill Road",
		NationalID: nationalID,
		Password:   "pw1",
		Role:       role,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result identityModel.SignupResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	return result.Token
}

func (s *ElectionHandlerSuite) addCandidate(name, party string) electionModel.CandidateRecord {
	rec := s.do(http.MethodPost, "/candidate/", s.adminToken, electionModel.CandidateRequest{
		Name:  name,
		Party: party,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var record electionModel.CandidateRecord
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	return record
}

func (s *ElectionHandlerSuite) TestCandidateCRUDRequiresAdmin() {
	voterToken := s.signup("1111", "voter")

	rec := s.do(http.MethodPost, "/candidate/", voterToken, electionModel.CandidateRequest{Name: "A", Party: "P"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/candidate/", "", electionModel.CandidateRequest{Name: "A", Party: "P"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ElectionHandlerSuite) TestCandidateLifecycle() {
	record := s.addCandidate("Asha", "Unity")

	rec := s.do(http.MethodPut, "/candidate/"+record.ID.String(), s.adminToken, electionModel.CandidateRequest{
		Name:  "Asha Rao",
		Party: "Unity",
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/candidate/", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summaries []electionModel.CandidateSummary
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &summaries))
	s.Equal([]electionModel.CandidateSummary{{Name: "Asha Rao", Party: "Unity"}}, summaries)

	rec = s.do(http.MethodDelete, "/candidate/"+record.ID.String(), s.adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/candidate/"+record.ID.String(), s.adminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ElectionHandlerSuite) TestVoteFlow() {
	record := s.addCandidate("Asha", "Unity")
	voterToken := s.signup("1111", "voter")

	rec := s.do(http.MethodPost, "/candidate/vote/"+record.ID.String(), voterToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// hasVoted is visible on the profile after the cast.
	rec = s.do(http.MethodGet, "/identity/profile", voterToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var profile identityModel.IdentityRecord
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &profile))
	s.True(profile.HasVoted)

	// Revoting fails no matter which candidate.
	rec = s.do(http.MethodPost, "/candidate/vote/"+record.ID.String(), voterToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ElectionHandlerSuite) TestAdminCannotVote() {
	record := s.addCandidate("Asha", "Unity")

	rec := s.do(http.MethodPost, "/candidate/vote/"+record.ID.String(), s.adminToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ElectionHandlerSuite) TestVoteUnknownCandidate() {
	voterToken := s.signup("1111", "voter")

	rec := s.do(http.MethodPost, "/candidate/vote/1b9c0f98-66f5-44ac-9b70-0541e52b7a41", voterToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ElectionHandlerSuite) TestVoteRequiresToken() {
	record := s.addCandidate("Asha", "Unity")

	rec := s.do(http.MethodPost, "/candidate/vote/"+record.ID.String(), "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ElectionHandlerSuite) TestTallyIsPublicAndSorted() {
	unity := s.addCandidate("Asha", "Unity")
	s.addCandidate("Binod", "Progress")

	for _, nationalID := range []string{"1111", "2222", "3333"} {
		token := s.signup(nationalID, "voter")
		rec := s.do(http.MethodPost, "/candidate/vote/"+unity.ID.String(), token, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
	}

	rec := s.do(http.MethodGet, "/candidate/vote/count", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var tally []electionModel.TallyEntry
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &tally))
	s.Equal([]electionModel.TallyEntry{
		{Party: "Unity", Count: 3},
		{Party: "Progress", Count: 0},
	}, tally)
}
