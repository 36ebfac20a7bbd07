package credential

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the credential to golang.org/x/oauth2 so it can be
// handed to SDK clients expecting an oauth2.TokenSource. The returned
// source shares this credential's cache; ctx bounds each underlying fetch.
func (c *Credential) TokenSource(ctx context.Context, scope string) oauth2.TokenSource {
	return &tokenSource{credential: c, ctx: ctx, scope: scope}
}

type tokenSource struct {
	credential *Credential
	ctx        context.Context
	scope      string
}

// Token implements oauth2.TokenSource.
func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := s.credential.GetToken(s.ctx, s.scope)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		Expiry:      token.ExpiresOn,
	}, nil
}
