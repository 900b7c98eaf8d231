package stores

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverMemory}, logger.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &repository.MemoryStore{}, s.Results)
	assert.IsType(t, &statsource.MemorySource{}, s.Stats)
}

func TestOpenSQLiteSharesFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "alpha.db")
	s, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: dsn}, logger.NewNop())
	require.NoError(t, err)

	row := model.RawStatRow{
		PlayerID: "p-1", Team: "KC", Opponent: "BUF", Position: model.WR,
		Season: 2024, Week: 1, Stats: map[string]float64{model.StatSnaps: 50},
	}
	require.NoError(t, s.Stats.PutRows(ctx, []model.RawStatRow{row}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: dsn}, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	players, err := reopened.Stats.Players(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "p-1", players[0].PlayerID)

	n, err := reopened.Results.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mongo"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
