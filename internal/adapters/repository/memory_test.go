package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

func TestTreapOrderMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ix := newPeriodIndex(0, nil)
	want := map[string]float64{}
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("p%03d", rng.Intn(200))
		score := float64(rng.Intn(1000)) / 10
		ix.put(result(id, model.WR, score, week7))
		want[id] = score
	}
	require.Equal(t, len(want), ix.len())

	type pair struct {
		id    string
		score float64
	}
	expected := make([]pair, 0, len(want))
	for id, s := range want {
		expected = append(expected, pair{id, s})
	}
	sort.Slice(expected, func(i, j int) bool {
		if expected[i].score != expected[j].score {
			return expected[i].score > expected[j].score
		}
		return expected[i].id < expected[j].id
	})

	got := ix.top("", len(want))
	require.Len(t, got, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].id, got[i].Result.PlayerID, "position %d", i)
		assert.Equal(t, expected[i].score, got[i].Result.Calibrated)
	}
}

func TestMemoryStore_ReadersSeeWholePeriods(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	batch := func(version string) []model.ScoreResult {
		out := make([]model.ScoreResult, 50)
		for i := range out {
			r := result(fmt.Sprintf("p%02d", i), model.WR, float64(i), week7)
			r.ProfileVersion = version
			out[i] = r
		}
		return out
	}
	require.NoError(t, s.ReplacePeriod(ctx, week7, 0, batch("v0")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := int64(1); gen <= 50; gen++ {
			assert.NoError(t, s.ReplacePeriod(ctx, week7, gen, batch(fmt.Sprintf("v%d", gen))))
		}
	}()

	for i := 0; i < 200; i++ {
		entries, err := s.Leaderboard(ctx, week7, "", 100)
		require.NoError(t, err)
		require.Len(t, entries, 50)
		version := entries[0].Result.ProfileVersion
		for _, e := range entries {
			assert.Equal(t, version, e.Result.ProfileVersion)
		}
	}
	wg.Wait()

	gen, err := s.Generation(ctx, week7)
	require.NoError(t, err)
	assert.Equal(t, int64(51), gen)
}

func TestMemoryStore_ModelsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	m := deviationModelFixture()
	require.NoError(t, s.SaveModel(ctx, m))

	m.Baselines["snap_share"] = 0
	got, err := s.Model(ctx, week7, model.WR)
	require.NoError(t, err)
	assert.Equal(t, 61.5, got.Baselines["snap_share"])
}

func BenchmarkMemoryStore_ReplacePeriod(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	results := make([]model.ScoreResult, 2000)
	for i := range results {
		results[i] = result(fmt.Sprintf("p%04d", i), model.Positions[i%len(model.Positions)], float64(i%1000)/10, week7)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.ReplacePeriod(ctx, week7, int64(i), results); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStore_Leaderboard(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	results := make([]model.ScoreResult, 2000)
	for i := range results {
		results[i] = result(fmt.Sprintf("p%04d", i), model.Positions[i%len(model.Positions)], float64(i%1000)/10, week7)
	}
	if err := s.ReplacePeriod(ctx, week7, 0, results); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Leaderboard(ctx, week7, model.WR, 50); err != nil {
			b.Fatal(err)
		}
	}
}
