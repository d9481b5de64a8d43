package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/config"
	"dompet/internal/core"
)

func TestFactoryCreateMemory(t *testing.T) {
	f := NewFactory(nil)

	result, err := f.Create(&config.Config{DataBackend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, result.Store)
	require.NotNil(t, result.Cleanup)
	assert.Nil(t, result.AMQP)

	// The returned store is live.
	tx, err := result.Store.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", Type: core.Income, Description: "gaji",
		Amount: core.Money{Rupiah: 1000000}, Category: "Gaji", Date: core.NewDate(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)

	require.NoError(t, result.Cleanup())
}

func TestFactoryCreateSQLite(t *testing.T) {
	f := NewFactory(nil)

	result, err := f.Create(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: t.TempDir() + "/dompet.db",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Store)
	assert.Nil(t, result.AMQP)

	require.NoError(t, result.Cleanup())
}

func TestFactoryRejectsUnknownBackend(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.Create(&config.Config{DataBackend: "firestore"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend type")
}

func TestBackendTypeValidity(t *testing.T) {
	assert.True(t, SQLiteBackend.IsValid())
	assert.True(t, MemoryBackend.IsValid())
	assert.False(t, BackendType("sheets").IsValid())
}
