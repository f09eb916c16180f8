package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
	"github.com/edgemarket/pkg/crypto"
	"github.com/edgemarket/pkg/keygen"
	"github.com/golang-jwt/jwt/v5"
)

const referralCodeAttempts = 5

// AuthService handles authentication operations
type AuthService struct {
	store     repository.Store
	referrals *ReferralService
	jwtConfig config.JWTConfig
	starter   models.Balances
}

// NewAuthService creates a new AuthService. It fails when the starter
// balances do not parse as non-negative decimals.
func NewAuthService(store repository.Store, referrals *ReferralService, jwtConfig config.JWTConfig, rules config.TradingConfig) (*AuthService, error) {
	starter, err := rules.StarterBalances()
	if err != nil {
		return nil, err
	}
	return &AuthService{
		store:     store,
		referrals: referrals,
		jwtConfig: jwtConfig,
		starter: models.Balances{
			TotalBalance:   starter.Total,
			TradingBalance: starter.Trading,
			Profit:         starter.Profit,
		},
	}, nil
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	FullName     string `json:"full_name" binding:"required,min=2,max=100"`
	Password     string `json:"password" binding:"required,min=6,max=100"`
	ReferralCode string `json:"referral_code" binding:"omitempty,max=16"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// JWTClaims represents the JWT claims
type JWTClaims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Register registers a new user, crediting the configured starter balances
// and linking the referrer when a referral code is given.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check if email exists
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := keygen.GenerateReferralCode()
		if err != nil {
			return nil, err
		}
		user = &models.User{
			Email:          email,
			FullName:       strings.TrimSpace(req.FullName),
			PasswordHash:   passwordHash,
			ReferralCode:   code,
			TotalBalance:   s.starter.TotalBalance,
			TradingBalance: s.starter.TradingBalance,
			Profit:         s.starter.Profit,
		}
		err = s.create(ctx, user, strings.ToUpper(strings.TrimSpace(req.ReferralCode)))
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		// email raced with another registration, or the code collided
		if _, lookupErr := s.store.Users().GetByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailTaken
		}
		user = nil
	}
	if user == nil {
		return nil, errors.New("could not allocate a unique referral code")
	}

	logger.Info("user registered", "user_id", user.ID, "email", user.Email, "referred_by", user.ReferredBy)
	return user, nil
}

func (s *AuthService) create(ctx context.Context, user *models.User, referralCode string) error {
	return s.store.Atomic(ctx, func(r repository.Repos) error {
		var referrerID uint
		if referralCode != "" {
			referrer, err := r.Users().GetByReferralCode(ctx, referralCode)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrInvalidReferralCode
				}
				return err
			}
			referrerID = referrer.ID
			user.ReferredBy = &referrerID
		}

		if err := r.Users().Create(ctx, user); err != nil {
			return err
		}
		if referrerID != 0 {
			return s.referrals.Link(ctx, r, referrerID, user.ID)
		}
		return nil
	})
}

// EnsureAdmin creates the admin account if it does not exist yet, or grants
// admin rights to an existing account with that email.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" {
		return nil
	}

	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(cfg.Email))
	switch {
	case err == nil:
		if user.IsAdmin {
			return nil
		}
		user.IsAdmin = true
		return s.store.Users().UpdateProfile(ctx, user)
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	if cfg.Password == "" {
		return errors.New("admin password is required to seed the admin account")
	}
	user, err = s.Register(ctx, &RegisterRequest{
		Email:    cfg.Email,
		FullName: cfg.FullName,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	user.IsAdmin = true
	if err := s.store.Users().UpdateProfile(ctx, user); err != nil {
		return err
	}
	logger.Info("admin account seeded", "user_id", user.ID, "email", user.Email)
	return nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify password
	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateToken(user)
}

// RefreshToken refreshes a JWT token
func (s *AuthService) RefreshToken(ctx context.Context, tokenString string) (*TokenResponse, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return s.generateToken(user)
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtConfig.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(user *models.User) (*TokenResponse, error) {
	expiresIn := time.Duration(s.jwtConfig.ExpireHours) * time.Hour

	claims := &JWTClaims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "edgemarket",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtConfig.ExpireHours * 3600,
	}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}
