package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/godilite/krishi-gateway/internal/config"
	"github.com/godilite/krishi-gateway/internal/repository"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	grpcsrv "github.com/godilite/krishi-gateway/pkg/grpc/server"
)

// loopback rewrites a wildcard listen address into one a client can dial.
func loopback(t *testing.T, addr net.Addr) string {
	t.Helper()
	tcp, ok := addr.(*net.TCPAddr)
	require.True(t, ok, "unexpected address type %T", addr)
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(tcp.Port))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HTTPPort = 0
	cfg.GRPCPort = 0
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "krishi.db")
	cfg.CacheEnabled = false
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestOpenStore_CreatesDirectoryAndSchema(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&n))
	assert.Zero(t, n)

	fs, err := NewFeedbackService(cfg, db, zap.NewNop())
	require.NoError(t, err)
	stats, err := fs.Analytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFeedback)
}

func TestOpenStore_ConcurrentWritesEitherDriver(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.DBDriver = driver

			db, err := OpenStore(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)
			defer db.Close()

			repo := repository.NewFeedbackRepository(db)
			now := time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)

			const writers = 200
			var wg sync.WaitGroup
			var mu sync.Mutex
			var failed []error
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := repo.Insert(context.Background(), models.Feedback{
						ID: fmt.Sprintf("fb-%d", i), Name: "Asha", Email: "asha@example.com",
						Rating: 4, Category: "app", Message: "useful", CreatedAt: now,
					})
					if err != nil {
						mu.Lock()
						failed = append(failed, err)
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			assert.Empty(t, failed)
			var n int
			require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&n))
			assert.Equal(t, writers, n)
		})
	}
}

func TestApp_RunAndShutdown(t *testing.T) {
	cfg := testConfig(t)

	a, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	healthURL := "http://" + loopback(t, a.HTTPAddr()) + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + loopback(t, a.HTTPAddr()) + "/api/feedback/analytics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, err := grpc.NewClient(loopback(t, a.GRPCAddr()), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	health := healthpb.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		res, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcsrv.ServiceName})
		return err == nil && res.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not shut down")
	}

	_, err = http.Get(healthURL)
	assert.Error(t, err)
}
