package server

import (
	"fmt"
	"net/http"
	"strings"
)

// Authenticator decides which account an incoming connection plays as.
type Authenticator interface {
	Authenticate(r *http.Request) (account string, err error)
}

// QueryAccount trusts the "account" query parameter. It is meant for local play and tests.
type QueryAccount struct{}

func (QueryAccount) Authenticate(r *http.Request) (string, error) {
	account := strings.TrimSpace(r.URL.Query().Get("account"))
	if account == "" {
		return "", fmt.Errorf("%w: no account given", ErrUnauthorized)
	}
	return account, nil
}

// TokenAuth maps bearer tokens to accounts. The token is read from the Authorization header,
// or from the "token" query parameter for clients that cannot set headers.
type TokenAuth map[string]string

func (t TokenAuth) Authenticate(r *http.Request) (string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	account, ok := t[token]
	if token == "" || !ok {
		return "", ErrUnauthorized
	}
	return account, nil
}
