package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baharkarakas/resumeforge/internal/auth"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid refresh token")

type Tokens struct {
	UserID       string    `json:"userId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionService signs users in anonymously: a fresh id and a token pair,
// with the ledger created at balance 0.
type SessionService struct {
	tm     *auth.TokenManager
	ledger repo.Ledger
}

func NewSessionService(tm *auth.TokenManager, l repo.Ledger) *SessionService {
	return &SessionService{tm: tm, ledger: l}
}

func (s *SessionService) Anonymous(ctx context.Context) (Tokens, error) {
	uid := uuid.NewString()
	if _, err := s.ledger.Balance(ctx, uid); err != nil {
		return Tokens{}, err
	}
	return s.issue(uid)
}

func (s *SessionService) Refresh(refreshToken string) (Tokens, error) {
	claims, isRefresh, err := s.tm.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return Tokens{}, ErrInvalidToken
	}
	return s.issue(claims.UserID)
}

func (s *SessionService) issue(uid string) (Tokens, error) {
	access, refresh, exp, err := s.tm.GeneratePair(uid)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign tokens: %w", err)
	}
	return Tokens{UserID: uid, AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}
