package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/security"
	"Hydro/internal/pkg/util"
	"Hydro/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

type UserService interface {
	SignUp(ctx context.Context, req *dto.SignUpDTO) (*dto.TokenDTO, error)
	SignIn(ctx context.Context, req *dto.CredentialDTO) (*dto.TokenDTO, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*security.UserClaims, error)
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	tokens   *security.TokenManager
	sessions SessionStore
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepo, tokens *security.TokenManager, sessions SessionStore) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		sessions: sessions,
		now:      time.Now,
	}
}

// SignUp 创建用户与默认设置，成功后直接登录
func (s *UserServiceImpl) SignUp(ctx context.Context, req *dto.SignUpDTO) (*dto.TokenDTO, error) {
	username := strings.TrimSpace(req.Username)
	existing, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, dbErr("find user", err)
	}
	if existing != nil {
		return nil, ErrUserExist
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	tz := req.Timezone
	if !util.ValidTimezone(tz) {
		tz = "UTC"
	}
	user := &model.User{Username: username, Password: hash, Role: consts.RoleUser}
	settings := &model.UserSettings{
		DailyGoal:  64,
		WeeklyGoal: 448,
		HandSize:   model.HandMedium,
		SipSize:    1,
		WaterUnit:  "oz",
		Timezone:   tz,
	}
	if err = s.userRepo.CreateUser(ctx, user, settings); err != nil {
		// 并发注册同名用户
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExist
		}
		return nil, dbErr("create user", err)
	}
	log.InfoContext(ctx, "user signed up", "user_id", user.ID, "timezone", tz)

	return s.issue(ctx, user)
}

// SignIn 每一步单独包装错误，便于定位失败位置
func (s *UserServiceImpl) SignIn(ctx context.Context, req *dto.CredentialDTO) (*dto.TokenDTO, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, dbErr("find user", pkgerrors.Wrap(err, "sign in: lookup"))
	}
	if user == nil {
		return nil, ErrPasswordIncorrect
	}

	if err = security.CheckPasswordHash(req.Password, user.Password); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			return nil, ErrPasswordIncorrect
		}
		return nil, pkgerrors.Wrap(err, "sign in: verify password")
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sign in: issue token")
	}
	return token, nil
}

func (s *UserServiceImpl) issue(ctx context.Context, user *model.User) (*dto.TokenDTO, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return nil, err
	}
	if err = s.sessions.SaveSession(ctx, signature, user.ID, s.tokens.TTL()); err != nil {
		return nil, pkgerrors.Wrap(err, "save session")
	}
	return &dto.TokenDTO{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: s.now().Add(s.tokens.TTL()).UTC(),
	}, nil
}

func (s *UserServiceImpl) SignOut(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return UnauthorizedError
	}
	return s.sessions.DeleteSession(ctx, signature)
}

// Authenticate 签名有效且会话仍存在才通过
func (s *UserServiceImpl) Authenticate(ctx context.Context, token string) (*security.UserClaims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, UnauthorizedError
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return nil, UnauthorizedError
	}
	uid, ok, err := s.sessions.SessionUser(ctx, signature)
	if err != nil {
		return nil, err
	}
	if !ok || uid != claims.UserID {
		return nil, UnauthorizedError
	}
	return claims, nil
}
