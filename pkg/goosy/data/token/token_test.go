package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMint_ValidateAndClone(t *testing.T) {
	mint := &Mint{
		Id:        1,
		Address:   "mint",
		Authority: "authority",
		Decimals:  6,
		Supply:    10,
		CreatedAt: time.Now(),
	}
	assert.NoError(t, mint.Validate())
	assert.Equal(t, mint, mint.Clone())

	var copied Mint
	mint.CopyTo(&copied)
	assert.Equal(t, *mint, copied)

	mint.Authority = ""
	assert.Error(t, mint.Validate())
	mint.Address = ""
	assert.Error(t, mint.Validate())
}

func TestAccount_ValidateAndClone(t *testing.T) {
	account := &Account{
		Id:            1,
		Address:       "token",
		Mint:          "mint",
		Owner:         "owner",
		Amount:        10,
		CreatedAt:     time.Now(),
		LastUpdatedAt: time.Now(),
	}
	assert.NoError(t, account.Validate())
	assert.Equal(t, account, account.Clone())

	var copied Account
	account.CopyTo(&copied)
	assert.Equal(t, *account, copied)

	for _, mutate := range []func(a *Account){
		func(a *Account) { a.Address = "" },
		func(a *Account) { a.Mint = "" },
		func(a *Account) { a.Owner = "" },
	} {
		cloned := account.Clone()
		mutate(cloned)
		assert.Error(t, cloned.Validate())
	}
}
