package api

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// LoginRequest is the first half of the GitHub OAuth login. The user opens
// URL; GitHub redirects back with a code that LoginUser exchanges together
// with ClientState.
type LoginRequest struct {
	URL         string `json:"url"`
	ClientState string `json:"client_state"`
}

func NewLoginRequest(clientID, redirectURL string) (LoginRequest, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return LoginRequest{}, errors.New("oauth client id is required")
	}
	cfg := oauth2.Config{
		ClientID:    clientID,
		Endpoint:    github.Endpoint,
		RedirectURL: strings.TrimSpace(redirectURL),
	}
	state := uuid.NewString()
	return LoginRequest{
		URL:         cfg.AuthCodeURL(state),
		ClientState: state,
	}, nil
}
