package tenancy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankAccount(t *testing.T) {
	a, err := NewBankAccount(uuid.New(), " State Bank ", "00112233", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "State Bank - 00112233", a.Label())
	assert.True(t, a.IsActive)

	_, err = NewBankAccount(uuid.New(), "", "1", uuid.New())
	assert.Error(t, err)
	_, err = NewBankAccount(uuid.New(), "SBI", "", uuid.New())
	assert.Error(t, err)
}

func TestBankAccountEnsureDeletable(t *testing.T) {
	a, err := NewBankAccount(uuid.New(), "SBI", "1", uuid.New())
	require.NoError(t, err)

	assert.NoError(t, a.EnsureDeletable(0))
	err = a.EnsureDeletable(2)
	require.Error(t, err)
	assert.Equal(t, "Cannot delete: 2 voucher(s) use this account. Deactivate instead.", err.Error())
}
