//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"slot-reservation/cmd/bootstrap"
	"slot-reservation/cmd/bootstrap/components"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/tests/common/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

// sweepInterval keeps expiry tests fast; the queue is disabled so the pull sweep is the only reaper.
const sweepInterval = 200 * time.Millisecond

// SharedSuite runs the full API graph against a dedicated Postgres database. Every subtest
// starts from empty tables.
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	DB     *pgxpool.Pool
	Config config.Config
}

func (s *SharedSuite) SetupSuite() {
	t := s.T()
	gin.SetMode(gin.TestMode)

	pool, dbCfg := dbtest.NewDatabase(t, dbtest.StartPostgres(t))
	s.DB = pool
	s.Config = testConfig(dbCfg)
	s.Router = startApp(t, pool, s.Config)
}

func (s *SharedSuite) SetupSubTest() {
	require.NoError(s.T(), dbtest.ResetDB(s.DB), "reset tables")
}

func testConfig(dbCfg config.DBConfig) config.Config {
	cfg := config.NewTestConfig()
	cfg.DB = dbCfg
	cfg.Sweep.Interval = sweepInterval
	return cfg
}

// startApp wires the same fx modules as cmd/main, minus config loading and the pool, which the
// test supplies. The app is stopped when t finishes.
func startApp(t *testing.T, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	t.Helper()

	var router *gin.Engine
	app := fx.New(
		fx.Supply(cfg, pool),
		fx.Provide(func() *gin.Engine { return gin.New() }),
		bootstrap.LoggerModule,
		bootstrap.QueueModule,
		bootstrap.EventsModule,
		components.StoreModule,
		components.UseCaseModule,
		components.HandlerModule,
		bootstrap.WorkerModule,
		fx.Populate(&router),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx), "start app")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			t.Logf("stop app: %v", err)
		}
	})

	require.NotNil(t, router, "router not populated")
	return router
}
