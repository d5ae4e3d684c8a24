package services

import (
	"context"
	"errors"
	"strings"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/auth"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/services/dto"
	"shareplace_backend/internal/validator"
	"shareplace_backend/pkg/apperrors"
)

const userDomain = "user"

type UserService interface {
	GetUsers(ctx context.Context) ([]*dto.UserResponse, error)
	Signup(ctx context.Context, req *dto.SignupRequest, image []byte) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type userService struct {
	store     repositories.RecordStore
	assets    assets.AssetStore
	images    *imagePolicy
	janitor   *assetJanitor
	validator *validator.Validator
	tokens    TokenIssuer
}

func NewUserService(deps Dependencies) UserService {
	return &userService{
		store:     deps.Store,
		assets:    deps.Assets,
		images:    &imagePolicy{assets: deps.Assets, processor: deps.Images},
		janitor:   &assetJanitor{store: deps.Store, assets: deps.Assets},
		validator: deps.Validator,
		tokens:    deps.Tokens,
	}
}

func (s *userService) GetUsers(ctx context.Context) ([]*dto.UserResponse, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return nil, apperrors.UnknownError(userDomain, err)
	}

	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	return out, nil
}

// Signup uploads the avatar and then saves the user; a failed save removes
// the avatar again.
func (s *userService) Signup(ctx context.Context, req *dto.SignupRequest, image []byte) (*dto.AuthResponse, error) {
	errs := fieldErrors(s.validator.Validate(req))
	image, ext := s.images.prepare(image, errs)
	if len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, userExists()
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, apperrors.UnknownError(userDomain, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.UnknownError(userDomain, err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
	}
	key := s.assets.NewKey(assets.FolderUsers, user.Name, ext)

	steps := []sagaStep{
		{
			name: stepUploadAsset,
			run: func(ctx context.Context) error {
				url, err := s.assets.Upload(ctx, image, key)
				if err != nil {
					return err
				}
				user.ImageURL = url
				user.ImageKey = key
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.janitor.release(ctx, key, opSignup+" compensation")
			},
		},
		{
			name: stepCommitRecords,
			run: func(ctx context.Context) error {
				err := s.store.Transaction(ctx, func(tx repositories.RecordStore) error {
					return tx.Users().Save(ctx, user)
				})
				switch {
				case err == nil:
					return nil
				case errors.Is(err, repositories.ErrUserAlreadyExists):
					return userExists()
				default:
					return apperrors.TransactionFailed(userDomain, err)
				}
			},
		},
	}

	if err := runSaga(ctx, opSignup, steps); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "User signed up", "user_id", user.ID)
	return s.authResponse(user)
}

// Login reports unknown emails and wrong passwords the same way.
func (s *userService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.UnknownError(userDomain, err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *userService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.UnknownError(userDomain, err)
	}
	return &dto.AuthResponse{UserID: user.ID, Email: user.Email, Token: token}, nil
}

func userExists() *apperrors.AppError {
	return apperrors.New(apperrors.CodeAlreadyExists, userDomain, "User exists already, please login instead", apperrors.ErrAlreadyExists.HTTPCode)
}
