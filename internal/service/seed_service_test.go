package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

type fakeSeedUsers struct {
	byEmail map[string]*models.User
}

func newFakeSeedUsers() *fakeSeedUsers {
	return &fakeSeedUsers{byEmail: make(map[string]*models.User)}
}

func (f *fakeSeedUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeSeedUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

type fakeSeedCatalog struct {
	mains  map[string]*models.MainService
	subs   map[string]*models.SubService
	grants map[uuid.UUID][]uuid.UUID
}

func newFakeSeedCatalog() *fakeSeedCatalog {
	return &fakeSeedCatalog{
		mains:  make(map[string]*models.MainService),
		subs:   make(map[string]*models.SubService),
		grants: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeSeedCatalog) CreateMainService(ctx context.Context, name string) (*models.MainService, error) {
	if existing, ok := f.mains[name]; ok {
		return existing, nil
	}
	main := &models.MainService{ID: uuid.New(), Name: name}
	f.mains[name] = main
	return main, nil
}

func (f *fakeSeedCatalog) CreateSubService(ctx context.Context, sub *models.SubService) error {
	key := fmt.Sprintf("%s/%s", sub.MainServiceID, sub.Name)
	if existing, ok := f.subs[key]; ok {
		sub.ID = existing.ID
		return nil
	}
	sub.ID = uuid.New()
	stored := *sub
	f.subs[key] = &stored
	return nil
}

func (f *fakeSeedCatalog) ReplaceSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error {
	f.grants[specialistID] = subServiceIDs
	return nil
}

func TestSeedService_Run(t *testing.T) {
	ctx := context.Background()
	users := newFakeSeedUsers()
	catalog := newFakeSeedCatalog()
	wallets := newMemWalletRepo(newMemOrderRepo())
	svc := NewSeedService(users, catalog, wallets)

	created, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, models.RoleCustomer, created[0].Role)
	assert.Equal(t, models.RoleSpecialist, created[1].Role)
	assert.Equal(t, models.RoleAdmin, created[2].Role)

	wallet, err := wallets.GetOrCreate(ctx, created[0].ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(10000)), "balance = %s", wallet.Balance)

	assert.Len(t, catalog.grants[created[1].ID], 2)
}

func TestSeedService_RunTwice_KeepsUsersAndBalance(t *testing.T) {
	ctx := context.Background()
	users := newFakeSeedUsers()
	catalog := newFakeSeedCatalog()
	wallets := newMemWalletRepo(newMemOrderRepo())
	svc := NewSeedService(users, catalog, wallets)

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Run(ctx)
	require.NoError(t, err)

	// Повторный прогон переиспользует пользователей и не удваивает баланс.
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	wallet, err := wallets.GetOrCreate(ctx, first[0].ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(10000)), "balance = %s", wallet.Balance)

	txns, err := wallets.ListTransactions(ctx, first[0].ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}
