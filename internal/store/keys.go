package store

import "time"

const (
	KeyPool            = "pool:state"
	KeyReservation     = "pool:reservation:%s"
	KeyOracleWhitelist = "oracle:whitelist"
	KeyRequest         = "oracle:request:%s"
	KeyGame            = "game:%s"
	KeyLiveGames       = "games:live"
	KeyPlayerGames     = "player:%s:games"
	KeyWallet          = "wallet:%s"
	KeyTransfer        = "transfer:%s"
	KeyWalletTransfers = "wallet:%s:transfers"
	KeyRateLimit       = "ratelimit:%s:%s"

	// Pool, whitelist, and wallets never expire. Requests and games are
	// kept for the audit window; the API process bumps live games and
	// their requests so they cannot age out mid-flight.
	TTLNone     = time.Duration(0)
	TTLRequest  = 30 * 24 * time.Hour
	TTLGame     = 30 * 24 * time.Hour
	TTLTransfer = 30 * 24 * time.Hour

	DefaultRateLimitOpens = 30 // max opened games per principal per minute
)
