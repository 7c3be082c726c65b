package config

import (
	"fmt"
	"os"
	"strconv"
)

// PotPolicy controls what happens to an escrowed stake when a game
// resolves with no winner.
type PotPolicy string

const (
	// PotPolicyRelease returns the stake to the pool's available balance.
	PotPolicyRelease PotPolicy = "release"
	// PotPolicyCarry leaves the reservation in place for operator rollover.
	PotPolicyCarry PotPolicy = "carry"
)

// GameRule is the per-game-type configuration snapshot.
type GameRule struct {
	// RandMax is the exclusive upper bound requested from the oracle.
	// Zero means the bound is per-game (guess range size).
	RandMax int64
	// MultiplierHundredths is the payout multiplier x100 (200 = 2.00x).
	// Zero means fair odds derived from the randomness range.
	MultiplierHundredths int64
	// ChoiceAfterOpen marks types whose prediction is submitted in a
	// separate call while randomness is still pending.
	ChoiceAfterOpen bool
	PotPolicy       PotPolicy
}

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// Principals. The coordinator principal is whitelisted on the oracle
	// at startup so it can bind game ids to randomness requests.
	AdminPrincipal       string
	OraclePrincipal      string
	CoordinatorPrincipal string

	// Settlement asset label, informational only (the transfer interface
	// moves a single configured asset).
	SettlementAsset string

	MinWager        int64
	MaxWager        int64
	HouseEdgeBps    int64
	PoolOwner       string
	StartingBalance int64

	GameRules map[string]GameRule
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		AdminPrincipal:       getEnv("ADMIN_PRINCIPAL", "admin"),
		OraclePrincipal:      getEnv("ORACLE_PRINCIPAL", "oracle"),
		CoordinatorPrincipal: getEnv("COORDINATOR_PRINCIPAL", "coordinator"),

		SettlementAsset: getEnv("SETTLEMENT_ASSET", "CHIP"),
		PoolOwner:       getEnv("POOL_OWNER", "pool"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	minWager, err := getEnvInt64("MIN_WAGER", 1)
	if err != nil {
		return nil, err
	}
	maxWager, err := getEnvInt64("MAX_WAGER", 10000)
	if err != nil {
		return nil, err
	}
	if minWager <= 0 || maxWager < minWager {
		return nil, fmt.Errorf("invalid wager bounds [%d, %d]", minWager, maxWager)
	}
	cfg.MinWager = minWager
	cfg.MaxWager = maxWager

	if cfg.HouseEdgeBps, err = getEnvInt64("HOUSE_EDGE_BPS", 200); err != nil {
		return nil, err
	}
	if cfg.HouseEdgeBps < 0 || cfg.HouseEdgeBps > 10000 {
		return nil, fmt.Errorf("house edge out of range: %d bps", cfg.HouseEdgeBps)
	}

	if cfg.StartingBalance, err = getEnvInt64("STARTING_BALANCE", 10000); err != nil {
		return nil, err
	}

	cfg.GameRules = DefaultGameRules()

	return cfg, nil
}

// DefaultGameRules covers the built-in wagering variants. The guess game
// uses fair odds (multiplier = range size) computed at open time.
func DefaultGameRules() map[string]GameRule {
	return map[string]GameRule{
		"guess": {
			RandMax:         0,
			ChoiceAfterOpen: true,
			PotPolicy:       PotPolicyRelease,
		},
		"coinflip": {
			RandMax:              2,
			MultiplierHundredths: 200,
			PotPolicy:            PotPolicyRelease,
		},
		"dice": {
			RandMax:              6,
			MultiplierHundredths: 600,
			PotPolicy:            PotPolicyRelease,
		},
		"color": {
			RandMax:              3,
			MultiplierHundredths: 300,
			PotPolicy:            PotPolicyRelease,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}
