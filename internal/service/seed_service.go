package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/adukenov/uslugi-backend/internal/logger"
	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type SeedCatalogRepository interface {
	CreateMainService(ctx context.Context, name string) (*models.MainService, error)
	CreateSubService(ctx context.Context, sub *models.SubService) error
	ReplaceSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error
}

// SeedService наполняет базу демонстрационными данными: каталог услуг,
// пользователи всех ролей и стартовые балансы. Используется только в
// окружении разработки.
type SeedService struct {
	users   UserRepository
	catalog SeedCatalogRepository
	wallets WalletRepository
}

func NewSeedService(users UserRepository, catalog SeedCatalogRepository, wallets WalletRepository) *SeedService {
	return &SeedService{
		users:   users,
		catalog: catalog,
		wallets: wallets,
	}
}

// Run выполняет сидинг и возвращает демо-пользователей. Операция
// идемпотентна, повторный запуск переиспользует существующие записи.
func (s *SeedService) Run(ctx context.Context) ([]*models.User, error) {
	cleaning, err := s.catalog.CreateMainService(ctx, "Уборка")
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	repair, err := s.catalog.CreateMainService(ctx, "Ремонт")
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	generalCleaning := &models.SubService{
		MainServiceID:   cleaning.ID,
		Name:            "Генеральная уборка",
		BasePrice:       decimal.NewFromInt(5000),
		ExpirationHours: 48,
	}
	plumbing := &models.SubService{
		MainServiceID:   repair.ID,
		Name:            "Сантехнические работы",
		BasePrice:       decimal.NewFromInt(3000),
		ExpirationHours: 24,
	}
	for _, sub := range []*models.SubService{generalCleaning, plumbing} {
		if err := s.catalog.CreateSubService(ctx, sub); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	customer, err := s.ensureUser(ctx, "customer@example.com", "customer", models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	specialist, err := s.ensureUser(ctx, "specialist@example.com", "specialist", models.RoleSpecialist)
	if err != nil {
		return nil, err
	}
	admin, err := s.ensureUser(ctx, "admin@example.com", "admin", models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.ReplaceSpecialistSubServices(ctx, specialist.ID,
		[]uuid.UUID{generalCleaning.ID, plumbing.ID}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	// Стартовый баланс начисляется один раз, повторный прогон его не удваивает.
	wallet, err := s.wallets.GetOrCreate(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if wallet.Balance.IsZero() {
		if _, err := s.wallets.Deposit(ctx, customer.ID, decimal.NewFromInt(10000), "Стартовый баланс"); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	if logger.Log != nil {
		logger.Log.Info("Демонстрационные данные загружены")
	}
	return []*models.User{customer, specialist, admin}, nil
}

// ensureUser возвращает существующего демо-пользователя или создаёт нового.
func (s *SeedService) ensureUser(ctx context.Context, email, username, role string) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("seed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return user, nil
}
