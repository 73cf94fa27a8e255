package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// handleRegister handles POST /register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account, err := s.accounts.CreateLocal(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "account registered", "account_id", account.ID)
	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// handleLogin handles POST /login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			authFailuresTotal.WithLabelValues("password").Inc()
			err = ErrUnauthorized.WithDetail("Invalid email or password")
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenType})
}

// handleGoogleLogin handles POST /login/google.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.LoginFederated(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, common.ErrFederatedTokenInvalid) {
			authFailuresTotal.WithLabelValues("google").Inc()
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   common.TokenType,
		User:        &userSummary{Email: res.Account.Email, ID: res.Account.ID},
	})
}

// handleMe handles GET /users/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountIDFromContext(r.Context())

	account, err := s.accounts.GetWithTasks(r.Context(), id)
	if err != nil {
		s.writeError(w, r, userNotFound(err))
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// handleUpdateProfile handles PUT /users/profile.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountIDFromContext(r.Context())

	var req profileUpdateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account, err := s.accounts.UpdateProfile(r.Context(), id, models.AccountUpdate{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, userNotFound(err))
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// handleDeleteMe handles DELETE /users/me.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountIDFromContext(r.Context())

	if err := s.accounts.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, userNotFound(err))
		return
	}

	s.logger.Info(r.Context(), "account deleted", "account_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func userNotFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrNotFound.WithDetail("User not found")
	}
	return err
}
