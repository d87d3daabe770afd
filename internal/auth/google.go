package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is what sign-in needs from a verified Google ID token.
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// GoogleVerifier checks ID tokens against Google's signing keys.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]interface{}) (*GoogleIdentity, error) {
	if subject == "" {
		return nil, errors.New("id token has no subject")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("id token has no email")
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = email
	}
	picture, _ := claims["picture"].(string)

	return &GoogleIdentity{
		GoogleID: subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
	}, nil
}
