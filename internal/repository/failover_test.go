package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WizardSession), args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, session *models.WizardSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFailoverSessionRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		session := &models.WizardSession{ID: "a"}
		primary.On("Get", ctx, "a").Return(session, nil).Once()

		got, err := repo.Get(ctx, "a")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		session := &models.WizardSession{ID: "b"}
		primary.On("Get", ctx, "b").Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, "b").Return(session, nil).Once()

		got, err := repo.Get(ctx, "b")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		session := &models.WizardSession{ID: "c"}
		primary.On("Get", ctx, "c").Return(session, nil).Once()

		got, err := repo.Get(ctx, "c")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx, "d").Return(nil, errors.New("still fail")).Once()
		fallback.On("Get", ctx, "d").Return(nil, nil).Once()

		_, err := repo.Get(ctx, "d")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SaveSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.WizardSession{ID: "e"}
		primary.On("Save", ctx, session).Return(nil).Once()

		err := repo.Save(ctx, session)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SaveFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.WizardSession{ID: "f"}
		primary.On("Save", ctx, session).Return(errors.New("fail")).Once()
		fallback.On("Save", ctx, session).Return(nil).Once()

		err := repo.Save(ctx, session)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("Delete", ctx, "g").Return(nil).Once()

		err := repo.Delete(ctx, "g")
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("Delete", ctx, "h").Return(errors.New("fail")).Once()
		fallback.On("Delete", ctx, "h").Return(nil).Once()

		err := repo.Delete(ctx, "h")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SaveAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now()
		session := &models.WizardSession{ID: "i"}
		fallback.On("Save", ctx, session).Return(nil).Once()

		err := repo.Save(ctx, session)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now()
		fallback.On("Delete", ctx, "j").Return(nil).Once()

		err := repo.Delete(ctx, "j")
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})
}
