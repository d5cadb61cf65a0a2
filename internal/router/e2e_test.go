//go:build integration

package router

// e2e_test.go
// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/config"
	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"
	"github.com/Cozta1/sistema-encomendas-V2/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type e2eEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
}

func setupE2E(t *testing.T) *e2eEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("encomendas_test"),
		tcPostgres.WithUsername("encomendas"),
		tcPostgres.WithPassword("encomendas"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "e2e-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		InvitationTTLHours: 72,
		PageSize:           20,
		PublicURL:          "http://localhost:8000",
	}

	db, err := infra.NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return &e2eEnv{
		engine: New(cfg, db, rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig())),
		db:     db,
		rdb:    rdb,
	}
}

func TestE2E_RegistrationQueuesWelcomeEmail(t *testing.T) {
	env := setupE2E(t)

	signUp(t, env.engine, "ana@example.com")

	n, err := worker.QueueLength(context.Background(), env.rdb, worker.QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestE2E_InvitationFlow(t *testing.T) {
	env := setupE2E(t)
	r := env.engine
	ana := signUp(t, r, "ana@example.com")
	bruno := signUp(t, r, "bruno@example.com")
	teamID := create(t, r, "/v1/teams", ana, gin.H{"name": "Doceria"})

	invID := invite(t, r, "/v1/teams/"+teamID, ana, "bruno@example.com", "manager")

	n, err := worker.QueueLength(context.Background(), env.rdb, worker.QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "two welcome emails and one invitation")

	w := call(t, r, http.MethodPost, "/v1/teams/"+teamID+"/invitations", ana, gin.H{"email": "BRUNO@example.com", "role": "member"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodPost, "/v1/invitations/"+invID+"/accept", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, http.MethodGet, "/v1/teams/"+teamID+"/members", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Len(t, members, 2)

	w = call(t, r, http.MethodPost, "/v1/invitations/"+invID+"/accept", bruno, nil)
	assert.Equal(t, http.StatusGone, w.Code, "an invitation is answered once")
}

func TestE2E_Scenarios(t *testing.T) {
	runScenarios(t, setupE2E(t).engine)
}

func TestE2E_ConcurrentOrdersGetDistinctNumbers(t *testing.T) {
	env := setupE2E(t)
	r := env.engine
	token := signUp(t, r, "ana@example.com")
	base := "/v1/teams/" + create(t, r, "/v1/teams", token, gin.H{"name": "Doceria"})
	clientID := create(t, r, base+"/clients", token, gin.H{"code": "C-1", "name": "Maria", "address": "Rua 1", "neighborhood": "Centro"})
	productID := create(t, r, base+"/products", token, gin.H{"code": "P-1", "name": "Bolo", "base_price": "20.00"})
	supplierID := create(t, r, base+"/suppliers", token, gin.H{"code": "F-1", "name": "Fornecedor"})
	body := gin.H{
		"client_id": clientID,
		"lines":     []gin.H{{"product_id": productID, "supplier_id": supplierID, "quantity": 1, "unit_price": "20.00"}},
	}

	const n = 8
	numbers := make(chan float64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := call(t, r, http.MethodPost, base+"/orders", token, body)
			if w.Code != http.StatusCreated {
				t.Errorf("create order: %d %s", w.Code, w.Body.String())
				return
			}
			var out map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Error(err)
				return
			}
			numbers <- out["number"].(float64)
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[float64]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "number %v assigned twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestE2E_DeadLetterReplay(t *testing.T) {
	env := setupE2E(t)
	ctx := context.Background()
	payload, err := json.Marshal(worker.EmailJobPayload{ToEmail: "ana@example.com", Subject: "Teste"})
	require.NoError(t, err)

	worker.SendToDLQ(ctx, env.rdb, worker.QueueEmail, worker.Job{Type: worker.JobTypeEmail, Payload: payload}, "smtp down", 3)
	worker.SendToDLQ(ctx, env.rdb, worker.QueueEmail, worker.Job{Type: worker.JobTypeEmail, Payload: payload, Replays: 3}, "smtp down", 3)

	cfg := worker.ReplayConfig{RDB: env.rdb, Queue: worker.QueueEmail, MaxReplays: 3}
	replayed, err := worker.ReplayDLQ(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)

	queued, err := worker.QueueLength(ctx, env.rdb, worker.QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
	parked, err := worker.DLQLength(ctx, env.rdb, worker.QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), parked, "entries over the replay budget stay in the DLQ")

	raw, err := env.rdb.RPop(ctx, worker.QueueEmail).Result()
	require.NoError(t, err)
	var job worker.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, 1, job.Replays)
}

func TestE2E_OpenBreakerSkipsReplay(t *testing.T) {
	env := setupE2E(t)
	ctx := context.Background()
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(func() error { return fmt.Errorf("smtp down") })
	worker.SendToDLQ(ctx, env.rdb, worker.QueueEmail, worker.Job{Type: worker.JobTypeEmail, Payload: []byte(`{}`)}, "smtp down", 3)

	replayed, err := worker.ReplayDLQ(ctx, worker.ReplayConfig{RDB: env.rdb, CB: cb, Queue: worker.QueueEmail, MaxReplays: 3})

	require.NoError(t, err)
	assert.Zero(t, replayed)
}
