package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adukenov/uslugi-backend/internal/models"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleSpecialist}

	token, exp, err := manager.Issue(user)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	userID, role, err := manager.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleSpecialist, role)
}

func TestTokenManager_ParseAccess_WrongSecret(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	token, _, err := manager.Issue(user)
	require.NoError(t, err)

	_, _, err = other.ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_UnknownRole(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Role: "superuser"}

	token, _, err := manager.Issue(user)
	require.NoError(t, err)

	_, _, err = manager.ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	token, _, err := manager.Issue(user)
	require.NoError(t, err)

	_, _, err = manager.ParseAccess(token)
	assert.Error(t, err)
}
