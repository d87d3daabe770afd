package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/auth"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, picture *string) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error)
}

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (string, *auth.UserClaims, error)
}

type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type UserService struct {
	store    UserStore
	verifier IdentityVerifier
	tokens   TokenIssuer
	revoker  TokenRevoker
	logger   *zap.Logger
}

func NewUserService(store UserStore, verifier IdentityVerifier, tokens TokenIssuer, revoker TokenRevoker, logger *zap.Logger) *UserService {
	return &UserService{
		store:    store,
		verifier: verifier,
		tokens:   tokens,
		revoker:  revoker,
		logger:   logger,
	}
}

// SignUp creates the account of a verified Google identity.
func (s *UserService) SignUp(ctx context.Context, idToken string) (*model.AuthRes, error) {
	id, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Create(ctx, &model.User{
		GoogleID:       id.GoogleID,
		Email:          id.Email,
		Name:           id.Name,
		ProfilePicture: id.Picture,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict("User already exists, please sign in instead", nil)
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to create user", err)
	}

	s.logger.Info("signup: user created", zap.String("user_id", user.UserID.String()))
	return s.issue(user)
}

// SignIn requires an existing account for the Google identity.
func (s *UserService) SignIn(ctx context.Context, idToken string) (*model.AuthRes, error) {
	id, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetByGoogleID(ctx, id.GoogleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: "User not found, please sign up first"}
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load user", err)
	}
	return s.issue(user)
}

func (s *UserService) verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, apperr.Validation("idToken is required")
	}
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid Google token", err)
	}
	return id, nil
}

func (s *UserService) issue(user *model.User) (*model.AuthRes, error) {
	token, claims, err := s.tokens.GenerateToken(user.UserID, user.Email)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindInternal, Message: "Failed to issue token", Err: err}
	}
	return &model.AuthRes{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: *user}, nil
}

// SignOut revokes the token until it expires.
func (s *UserService) SignOut(ctx context.Context, claims *auth.UserClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Persistence("Failed to sign out", err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User", "load user")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileReq) (*model.User, error) {
	var name *string
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		name = &n
	}
	u, err := s.store.UpdateProfile(ctx, userID, name, req.ProfilePicture)
	if err != nil {
		return nil, storeErr(err, "User", "update user")
	}
	return u, nil
}

// DeleteAccount removes the user and, through the schema, everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return storeErr(err, "User", "delete user")
	}
	s.logger.Info("delete_account: user deleted", zap.String("user_id", userID.String()))
	return nil
}
