package auth

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// TokenVerifier returns the subject of a valid access token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gate turns an Authorization header into the id of the calling account.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate accepts "Bearer <token>" (scheme is case-insensitive) and
// returns the account id the token was issued for. Missing, malformed,
// expired and forged credentials all yield common.ErrorUnauthorized.
func (g *Gate) Authenticate(header string) (int64, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return 0, common.ErrorUnauthorized
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return 0, common.ErrorUnauthorized
	}

	subject, err := g.tokens.Verify(token)
	if err != nil {
		return 0, common.ErrorUnauthorized
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorUnauthorized
	}

	return id, nil
}
