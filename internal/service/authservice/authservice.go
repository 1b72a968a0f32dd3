package authservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

type Repo interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type ProfileRepo interface {
	Create(ctx context.Context, profile *domain.Profile) error
}

type Wallets interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

type Service struct {
	userRepo    Repo
	profileRepo ProfileRepo
	wallets     Wallets
	txManager   pg.TXManager
	hashService auth.PasswordHasher
	jwtService  auth.JWTServiceInterface
	tokenTTL    time.Duration
}

func New(
	repo Repo,
	profileRepo ProfileRepo,
	wallets Wallets,
	txManager pg.TXManager,
	hashService auth.PasswordHasher,
	jwtService auth.JWTServiceInterface,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		userRepo:    repo,
		profileRepo: profileRepo,
		wallets:     wallets,
		txManager:   txManager,
		hashService: hashService,
		jwtService:  jwtService,
		tokenTTL:    tokenTTL,
	}
}

type RegisterInput struct {
	Phone    string
	Password string
	FullName string
	Role     domain.Role
}

// Register creates the user together with an empty profile and wallet.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)
	switch {
	case !phonePattern.MatchString(in.Phone):
		return nil, domain.Validationf("phone number %q is not valid", in.Phone)
	case in.Password == "":
		return nil, domain.Validationf("password is required")
	case in.FullName == "":
		return nil, domain.Validationf("full name is required")
	case !in.Role.Valid():
		return nil, domain.Validationf("role must be %s or %s", domain.RoleServiceReceiver, domain.RoleServiceProvider)
	}

	existing, err := s.userRepo.FindByPhone(ctx, in.Phone)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, domain.Classify(err)
	}
	if existing != nil {
		zap.L().Info("user already exists", zap.String("phone", in.Phone))
		return nil, fmt.Errorf("%w: phone already registered", domain.ErrAlreadyExists)
	}

	hashedPassword, err := s.hashService.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, domain.Validationf("%v", err)
	}
	if err != nil {
		zap.L().Error("can't hash password", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Phone:        in.Phone,
		PasswordHash: hashedPassword,
		Role:         in.Role,
		CreatedAt:    now,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		err := s.profileRepo.Create(ctx, &domain.Profile{
			UserID:    user.ID,
			FullName:  in.FullName,
			Phone:     in.Phone,
			Role:      in.Role,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		_, err = s.wallets.GetOrCreateWallet(ctx, user.ID)
		return err
	})
	if err != nil {
		zap.L().Error("can't register user", zap.Error(err))
		return nil, domain.Classify(err)
	}

	zap.L().Info("user successfully registered", zap.String("userID", user.ID.String()), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, phone, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, domain.Classify(err)
	}
	if user == nil || !s.hashService.ComparePassword(user.PasswordHash, password) {
		zap.L().Info("invalid credentials", zap.String("phone", phone))
		return nil, ErrInvalidCredentials
	}
	zap.L().Info("user successfully authenticated", zap.String("userID", user.ID.String()))
	return user, nil
}

func (s *Service) GenerateToken(userID uuid.UUID, role domain.Role) (string, error) {
	token, err := s.jwtService.GenerateJWT(userID, string(role), time.Now().Add(s.tokenTTL))
	if err != nil {
		zap.L().Error("can't generate token", zap.Error(err))
		return "", err
	}
	return token, nil
}
