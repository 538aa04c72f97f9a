package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewRefreshTokenRepository(t *testing.T) {
	db := &Connection{}
	repo := NewRefreshTokenRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewTransactor(t *testing.T) {
	db := &Connection{}
	assert.Equal(t, db, NewTransactor(db).db)
}

func TestHashRefresh(t *testing.T) {
	a := hashRefresh("token")

	assert.Len(t, a, 32)
	assert.Equal(t, a, hashRefresh("token"))
	assert.NotEqual(t, a, hashRefresh("other"))
}

func TestConnection_PingWithoutPool(t *testing.T) {
	c := &Connection{}

	assert.Error(t, c.Ping(t.Context()))
	assert.NoError(t, c.Close())
}
