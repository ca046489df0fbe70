package repositories_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shopauth/database"
	"shopauth/internal/models"
	"shopauth/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         models.UserRoleCustomer,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRefreshTokenCreateConflict(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewRefreshTokenRepository()
	user := seedUser(t, db, "alice@example.com")

	token := &models.RefreshToken{
		UserID:    user.ID,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(db, token))

	dup := &models.RefreshToken{
		UserID:    user.ID,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	err := repo.Create(db, dup)
	assert.ErrorIs(t, err, repositories.ErrRefreshTokenConflict)
}

func TestRefreshTokenDeleteByToken(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewRefreshTokenRepository()
	user := seedUser(t, db, "alice@example.com")

	require.NoError(t, repo.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, repo.DeleteByToken(db, "tok-1"))

	// The second delete is the losing side of a rotation race.
	err := repo.DeleteByToken(db, "tok-1")
	assert.ErrorIs(t, err, repositories.ErrRefreshTokenNotFound)
}

func TestRefreshTokenCleanExpired(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewRefreshTokenRepository()
	user := seedUser(t, db, "alice@example.com")

	require.NoError(t, repo.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     "live",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, repo.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	// Expired rows only count against storage, not against validity.
	count, err := repo.CountByUserID(db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.CleanExpired(db))

	_, err = repo.FindByToken(db, "stale")
	assert.ErrorIs(t, err, repositories.ErrRefreshTokenNotFound)
	_, err = repo.FindByToken(db, "live")
	require.NoError(t, err)
}

func TestRefreshTokenDeleteByUserID(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewRefreshTokenRepository()
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	for _, tok := range []string{"a-1", "a-2"} {
		require.NoError(t, repo.Create(db, &models.RefreshToken{
			UserID:    alice.ID,
			Token:     tok,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	require.NoError(t, repo.Create(db, &models.RefreshToken{
		UserID:    bob.ID,
		Token:     "b-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, repo.DeleteByUserID(db, alice.ID))

	count, err := repo.CountByUserID(db, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = repo.FindByToken(db, "b-1")
	require.NoError(t, err)
}
