package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepLockAcquire(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := NewSweepLock(db, "boxoffice:sweep", 50*time.Second)

	mock.ExpectSetNX("boxoffice:sweep", lock.owner, 50*time.Second).SetVal(true)
	mock.ExpectSetNX("boxoffice:sweep", lock.owner, 50*time.Second).SetVal(false)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLockAcquireError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := NewSweepLock(db, "boxoffice:sweep", time.Minute)

	mock.ExpectSetNX("boxoffice:sweep", lock.owner, time.Minute).SetErr(errors.New("connection refused"))

	ok, err := lock.Acquire(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLockRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := NewSweepLock(db, "boxoffice:sweep", time.Minute)

	mock.ExpectEval(releaseScript, []string{"boxoffice:sweep"}, lock.owner).SetVal(int64(1))
	require.NoError(t, lock.Release(context.Background()))

	mock.ExpectEval(releaseScript, []string{"boxoffice:sweep"}, lock.owner).SetErr(errors.New("READONLY"))
	assert.Error(t, lock.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLockOwnersDiffer(t *testing.T) {
	db, _ := redismock.NewClientMock()
	a := NewSweepLock(db, "k", time.Second)
	b := NewSweepLock(db, "k", time.Second)
	assert.NotEqual(t, a.owner, b.owner)
}
