package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/config"
	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/metrics"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// bcryptCost is lowered by tests.
var bcryptCost = 12

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// RequestPasswordReset never reveals whether the email is registered.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req dto.PasswordResetConfirmRequest) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error
	Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authService struct {
	repo   repository.UserRepository
	emails EmailQueue
	cfg    *config.Config
}

func NewAuthService(repo repository.UserRepository, emails EmailQueue, cfg *config.Config) AuthService {
	return &authService{repo: repo, emails: emails, cfg: cfg}
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	return string(hash), err
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	fe := fieldErrors{}
	if !validEmail(email) {
		fe.add("email", "email inválido")
	}
	requireText(fe, "full_name", req.FullName, 200)
	if req.Password != req.PasswordConfirm {
		fe.add("password_confirm", "as senhas não conferem")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var identification *string
	if id := strings.TrimSpace(req.Identification); id != "" {
		exists, err := s.repo.ExistsByIdentification(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &ValidationError{Fields: map[string]string{"identification": "identificação já cadastrada"}}
		}
		identification = &id
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:          email,
		FullName:       strings.TrimSpace(req.FullName),
		Identification: identification,
		Position:       strings.TrimSpace(req.Position),
		Phone:          strings.TrimSpace(req.Phone),
		PasswordHash:   hash,
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	subject, body := welcomeEmail(user.DisplayName())
	queued := enqueueEmail(ctx, s.emails, user.Email, subject, body)
	log.Info().Str("user_id", user.ID.String()).Msg("auth: user registered")
	return &dto.RegisterResponse{User: toUserResponse(user), EmailQueued: queued}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		metrics.AuthAttempts.WithLabelValues("unknown_user").Inc()
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("bad_password").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenRefresh {
		return nil, ErrInvalidToken
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(user)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	token := uuid.NewString()
	expires := now().Add(s.cfg.PasswordResetTTL())
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expires
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	subject, body := passwordResetEmail(user.DisplayName(), s.cfg.PublicURL, token, expires)
	enqueueEmail(ctx, s.emails, user.Email, subject, body)
	log.Info().Str("user_id", user.ID.String()).Msg("auth: password reset requested")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.PasswordResetConfirmRequest) error {
	if req.Password != req.PasswordConfirm {
		return &ValidationError{Fields: map[string]string{"password_confirm": "as senhas não conferem"}}
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	user, err := s.repo.FindByResetToken(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if user.ResetTokenExpiresAt == nil || !now().Before(*user.ResetTokenExpiresAt) {
		return ErrInvalidToken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID.String()).Msg("auth: password reset")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &ValidationError{Fields: map[string]string{"current_password": "senha atual incorreta"}}
	}
	if req.Password != req.PasswordConfirm {
		return &ValidationError{Fields: map[string]string{"password_confirm": "as senhas não conferem"}}
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         toUserResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	issued := now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"name":    user.DisplayName(),
		"typ":     typ,
		"exp":     issued.Add(duration).Unix(),
		"iat":     issued.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
