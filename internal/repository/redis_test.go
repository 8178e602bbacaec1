package repository

import (
	"context"
	"testing"
	"time"

	"bistrobytes/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		session := &models.WizardSession{
			ID:   "sess-1",
			Step: models.StepContact,
			Form: models.LeadForm{
				RestaurantName: "Mama Rosa",
				OwnerName:      "Rosa Marino",
				Email:          "rosa@mamarosa.com",
			},
		}

		err := repo.Save(ctx, session)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, session.Step, got.Step)
		assert.Equal(t, session.Form.RestaurantName, got.Form.RestaurantName)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		got, err := repo.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		session := &models.WizardSession{ID: "sess-2", Step: models.StepStart}
		repo.Save(ctx, session)

		err := repo.Delete(ctx, "sess-2")
		require.NoError(t, err)

		got, _ := repo.Get(ctx, "sess-2")
		assert.Nil(t, got)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		short := NewRedisSessionRepository(client, time.Second)
		session := &models.WizardSession{ID: "sess-3", Step: models.StepStart}
		require.NoError(t, short.Save(ctx, session))

		s.FastForward(2 * time.Second)

		got, err := short.Get(ctx, "sess-3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.Get(ctx, "sess-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
