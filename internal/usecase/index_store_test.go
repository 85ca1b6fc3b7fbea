package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
	"github.com/iho/precatorio/internal/usecase/mocks"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(d, v string) domain.IndexEntry {
	return domain.IndexEntry{EffectiveDate: date(d), Value: dec(v)}
}

func mustTable(t *testing.T, name string, kind domain.TableKind, entries ...domain.IndexEntry) *domain.IndexTable {
	t.Helper()
	table, err := domain.NewIndexTable(name, kind, "", entries)
	require.NoError(t, err)
	return table
}

func referenceTables(t *testing.T) []*domain.IndexTable {
	return []*domain.IndexTable{
		mustTable(t, "ipca-e", domain.KindFactor, entry("2023-01-01", "1.05")),
		mustTable(t, "selic", domain.KindRate, entry("2023-01-01", "1.12"), entry("2023-02-01", "0.92")),
		mustTable(t, "minimum_wage", domain.KindValue, entry("2023-01-01", "1320.00"), entry("2024-01-01", "1412.00")),
	}
}

func TestIndexStore_CurrentBeforePublish(t *testing.T) {
	store := usecase.NewIndexStore(usecase.IndexStoreConfig{})

	_, err := store.Current()
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestIndexStore_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	recorder := mocks.NewMockRecorder(ctrl)

	repo.EXPECT().LoadTables(gomock.Any()).Return(referenceTables(t), nil)
	idGen.EXPECT().Generate().Return("snap-1")
	recorder.EXPECT().ObserveRefresh(gomock.Not(gomock.Nil()), nil)
	cache.EXPECT().Save(gomock.Any(), gomock.Any(), 48*time.Hour).Return(nil)

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{
		Repository:  repo,
		Cache:       cache,
		IDGenerator: idGen,
		Recorder:    recorder,
		CacheTTL:    48 * time.Hour,
	})

	res, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceRepository, res.Source)
	assert.Equal(t, "snap-1", res.Snapshot.Version)
	assert.Nil(t, res.SourceErr)

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Same(t, res.Snapshot, snap)
	assert.Len(t, snap.Tables(), 3)
	assert.Equal(t, 5, snap.EntryCount())
}

func TestIndexStore_RefreshKeepsPublishedSnapshotOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	loadErr := errors.New("connection refused")
	gomock.InOrder(
		repo.EXPECT().LoadTables(gomock.Any()).Return(referenceTables(t), nil),
		repo.EXPECT().LoadTables(gomock.Any()).Return(nil, loadErr),
	)
	idGen.EXPECT().Generate().Return("snap-1")

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{Repository: repo, IDGenerator: idGen})

	_, err := store.Refresh(context.Background())
	require.NoError(t, err)

	_, err = store.Refresh(context.Background())
	require.ErrorIs(t, err, loadErr)

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "snap-1", snap.Version)
}

func TestIndexStore_RefreshFallsBackToCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)

	cached, err := domain.NewIndexSnapshot("cached-1", time.Now(), referenceTables(t))
	require.NoError(t, err)

	loadErr := errors.New("connection refused")
	repo.EXPECT().LoadTables(gomock.Any()).Return(nil, loadErr)
	cache.EXPECT().Load(gomock.Any()).Return(cached, nil)

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{Repository: repo, Cache: cache})

	res, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceCache, res.Source)
	assert.ErrorIs(t, res.SourceErr, loadErr)

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "cached-1", snap.Version)
}

func TestIndexStore_RefreshCacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)

	loadErr := errors.New("connection refused")
	repo.EXPECT().LoadTables(gomock.Any()).Return(nil, loadErr)
	cache.EXPECT().Load(gomock.Any()).Return(nil, usecase.ErrCacheMiss)

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{Repository: repo, Cache: cache})

	_, err := store.Refresh(context.Background())
	require.ErrorIs(t, err, loadErr)
	assert.NotErrorIs(t, err, usecase.ErrCacheMiss)

	_, err = store.Current()
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestIndexStore_RefreshCacheSaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	saveErr := errors.New("redis down")
	repo.EXPECT().LoadTables(gomock.Any()).Return(referenceTables(t), nil)
	idGen.EXPECT().Generate().Return("snap-1")
	cache.EXPECT().Save(gomock.Any(), gomock.Any(), usecase.DefaultSnapshotCacheTTL).Return(saveErr)

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{Repository: repo, Cache: cache, IDGenerator: idGen})

	res, err := store.Refresh(context.Background())
	require.ErrorIs(t, err, saveErr)
	require.NotNil(t, res)

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "snap-1", snap.Version)
}

func TestIndexStore_RefreshUsesRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockIndexRepository(ctrl)
	retrier := mocks.NewMockRetrier(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	transient := errors.New("serialization failure")
	gomock.InOrder(
		repo.EXPECT().LoadTables(gomock.Any()).Return(nil, transient),
		repo.EXPECT().LoadTables(gomock.Any()).Return(referenceTables(t), nil),
	)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		if err := op(); err == nil {
			return nil
		}
		return op()
	})
	idGen.EXPECT().Generate().Return("snap-1")

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{Repository: repo, Retrier: retrier, IDGenerator: idGen})

	res, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Tables(), 3)
}

func TestIndexStore_PublishRejectsDuplicateTables(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idGen := mocks.NewMockIDGenerator(ctrl)
	idGen.EXPECT().Generate().Return("snap-1")

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{IDGenerator: idGen})

	table := mustTable(t, "ipca-e", domain.KindFactor, entry("2023-01-01", "1.05"))
	_, err := store.Publish([]*domain.IndexTable{table, table})
	assert.ErrorIs(t, err, domain.ErrInvalidTableName)

	_, err = store.Current()
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestIndexStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idGen := mocks.NewMockIDGenerator(ctrl)
	idGen.EXPECT().Generate().Return("snap").AnyTimes()

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{IDGenerator: idGen})
	_, err := store.Publish(referenceTables(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, err := store.Current()
				if err != nil {
					t.Error(err)
					return
				}
				if n := len(snap.Tables()); n != 3 {
					t.Errorf("snapshot has %d tables", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if _, err := store.Publish(referenceTables(t)); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
}
