package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RubachokBoss/student-portal/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAckRepo struct {
	*repository.MemoryAckRepository
	lookups int
	err     error
}

func (r *countingAckRepo) IsAcknowledged(ctx context.Context, id string) (bool, error) {
	r.lookups++
	if r.err != nil {
		return false, r.err
	}
	return r.MemoryAckRepository.IsAcknowledged(ctx, id)
}

func TestAckLoadSkipsEmptyID(t *testing.T) {
	repo := &countingAckRepo{MemoryAckRepository: repository.NewMemoryAckRepository()}
	svc := NewAckService(repo, nil, zerolog.Nop())

	ok, err := svc.Load(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, repo.lookups)
}

func TestAckLoadMissingIsFalse(t *testing.T) {
	svc := NewAckService(repository.NewMemoryAckRepository(), nil, zerolog.Nop())

	ok, err := svc.Load(context.Background(), "20251234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	repo := repository.NewMemoryAckRepository()
	svc := NewAckService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Acknowledge(ctx, "20251234"))
	require.NoError(t, svc.Acknowledge(ctx, "20251234"))

	assert.Equal(t, 1, repo.Len())
	ok, err := svc.Load(ctx, "20251234")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcknowledgeEmptyIDWritesNothing(t *testing.T) {
	repo := repository.NewMemoryAckRepository()
	svc := NewAckService(repo, nil, zerolog.Nop())

	err := svc.Acknowledge(context.Background(), "")
	assert.ErrorIs(t, err, ErrIdentityRequired)
	assert.Zero(t, repo.Len())
}

func TestAckLoadWrapsStorageError(t *testing.T) {
	boom := errors.New("disk gone")
	repo := &countingAckRepo{MemoryAckRepository: repository.NewMemoryAckRepository(), err: boom}
	svc := NewAckService(repo, nil, zerolog.Nop())

	_, err := svc.Load(context.Background(), "1")
	assert.ErrorIs(t, err, boom)
}
