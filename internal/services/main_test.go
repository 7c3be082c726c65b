package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/services"
	"wagerpool-backend/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       "test",
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,

		JWTSecret: "test-secret",

		AdminPrincipal:       "admin",
		OraclePrincipal:      "oracle",
		CoordinatorPrincipal: "coordinator",

		SettlementAsset: "CHIP",
		PoolOwner:       "pool",

		MinWager:        1,
		MaxWager:        10000,
		HouseEdgeBps:    200,
		StartingBalance: 10000,

		GameRules: config.DefaultGameRules(),
	}
}

func setupTestStore(t *testing.T) (*store.Store, *config.Config) {
	t.Helper()

	cfg := testConfig()
	st, err := store.New(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st, cfg
}

// setupLedger gives each test a fresh pool backed by a fake transfer.
func setupLedger(t *testing.T, transfer services.AssetTransfer) (*services.Ledger, *store.Store, *config.Config) {
	t.Helper()

	st, cfg := setupTestStore(t)
	ledger := services.NewLedger(st, transfer, cfg)

	ctx := context.Background()
	if err := st.Delete(ctx, store.KeyPool); err != nil {
		t.Fatalf("Failed to reset pool: %v", err)
	}
	if err := ledger.EnsurePool(ctx); err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}

	return ledger, st, cfg
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func cleanupKeys(t *testing.T, st *store.Store, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		ctx := context.Background()
		for _, key := range keys {
			st.Delete(ctx, key)
		}
	})
}

// fakeTransfer stands in for the external asset contract.
type fakeTransfer struct {
	mu    sync.Mutex
	fail  bool
	calls []transferCall
}

type transferCall struct {
	From, To string
	Amount   int64
}

func (f *fakeTransfer) Transfer(ctx context.Context, from, to string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return fmt.Errorf("asset contract unavailable")
	}
	f.calls = append(f.calls, transferCall{From: from, To: to, Amount: amount})
	return nil
}

func (f *fakeTransfer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
