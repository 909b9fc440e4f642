package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu   sync.Mutex
	seen []int
}

func (r *recorder) OnGeneration(g Generation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, g.Index)
}

func (r *recorder) indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.seen...)
}

func TestObserver_ReceivesEveryGenerationInOrder(t *testing.T) {
	e, err := New(testConfig(), lineData)
	require.NoError(t, err)

	rec := &recorder{}
	e.Subscribe(rec)

	for i := 0; i < 10; i++ {
		_, err := e.Advance(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, rec.indices())
	assert.Zero(t, e.Dropped())
}

func TestObserver_Unsubscribe(t *testing.T) {
	e, err := New(testConfig(), lineData)
	require.NoError(t, err)
	defer e.Close()

	rec := &recorder{}
	unsubscribe := e.Subscribe(rec)

	_, err = e.Advance(context.Background())
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()

	_, err = e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, rec.indices())
}

func TestObserver_SlowObserverDoesNotBlock(t *testing.T) {
	cfg := testConfig()
	cfg.ObserverBuffer = 1
	e, err := New(cfg, lineData)
	require.NoError(t, err)

	release := make(chan struct{})
	e.Subscribe(ObserverFunc(func(Generation) { <-release }))

	for i := 0; i < 5; i++ {
		_, err := e.Advance(context.Background())
		require.NoError(t, err)
	}
	// At most one generation is in the handler and one queued.
	assert.GreaterOrEqual(t, e.Dropped(), int64(3))

	close(release)
	require.NoError(t, e.Close())
}

func TestObserver_SubscribeAfterClose(t *testing.T) {
	e, err := New(testConfig(), lineData)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	rec := &recorder{}
	e.Subscribe(rec)()
	assert.Empty(t, rec.indices())
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e, err := New(testConfig(), lineData)
	require.NoError(t, err)

	e.Subscribe(LogObserver(zap.New(core), 2))
	for i := 0; i < 6; i++ {
		_, err := e.Advance(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())

	entries := logs.FilterMessage("generation").All()
	require.Len(t, entries, 3)
	assert.EqualValues(t, 2, entries[0].ContextMap()["index"])
	assert.EqualValues(t, 6, entries[2].ContextMap()["index"])
}

func TestEngine_LogsWarningOnCollapse(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := testConfig()
	cfg.Population = 10

	e, err := New(cfg, lineData, WithLogger(zap.New(core)), WithInitialPopulation(collapsingPopulation()))
	require.NoError(t, err)

	_, err = e.Advance(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("selection failed").Len())
}
