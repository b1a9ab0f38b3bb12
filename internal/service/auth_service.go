package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
	"github.com/Josephquito/back-streaming/pkg/apperr"
)

// AuthService registers businesses with their admin user and issues JWTs
// carrying the identity every other service scopes its queries by.
type AuthService struct {
	db           *gorm.DB
	cfg          *config.Config
	log          *logrus.Logger
	userRepo     *repository.UserRepository
	businessRepo *repository.BusinessRepository
}

func NewAuthService(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *AuthService {
	return &AuthService{
		db:           db,
		cfg:          cfg,
		log:          log,
		userRepo:     repository.NewUserRepository(db),
		businessRepo: repository.NewBusinessRepository(db),
	}
}

type RegisterInput struct {
	BusinessName string `json:"business_name" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
}

type RegisterEmployeeInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type identityClaims struct {
	UserID     int64  `json:"user_id"`
	BusinessID int64  `json:"business_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a business and its admin user in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflictf("ya existe un usuario con el correo %s", in.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generando hash de contraseña: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		business := &model.Business{Name: in.BusinessName}
		if err := s.businessRepo.Create(ctx, tx, business); err != nil {
			return err
		}
		user.BusinessID = business.ID
		return s.userRepo.Create(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "business_id": user.BusinessID}).Info("negocio registrado")
	return user, nil
}

// RegisterEmployee lets an admin add a seller to their own business.
func (s *AuthService) RegisterEmployee(ctx context.Context, in RegisterEmployeeInput, ident Identity) (*model.User, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	if ident.Role != model.RoleAdmin {
		return nil, apperr.Forbiddenf("solo un administrador puede crear empleados")
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflictf("ya existe un usuario con el correo %s", in.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generando hash de contraseña: %w", err)
	}

	user := &model.User{
		BusinessID:   ident.BusinessID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         model.RoleEmployee,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperr.Unauthorizedf("credenciales inválidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorizedf("credenciales inválidas")
	}

	now := time.Now()
	claims := identityClaims{
		UserID:     user.ID,
		BusinessID: user.BusinessID,
		Role:       user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.Auth.TokenTTLHours) * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("firmando token: %w", err)
	}
	return token, user, nil
}

// ParseToken validates a bearer token and extracts the caller's identity.
func (s *AuthService) ParseToken(tokenString string) (Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorizedf("método de firma inesperado")
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.Unauthorizedf("token inválido o expirado")
	}
	return Identity{UserID: claims.UserID, BusinessID: claims.BusinessID, Role: claims.Role}, nil
}
