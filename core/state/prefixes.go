package state

var (
	tokenBalancePrefix   = []byte("token/balance/")
	tokenSupplyPrefix    = []byte("token/supply/")
	withdrawablePrefix   = []byte("vault/withdrawable/")
	pausePrefix          = []byte("vault/pause/")
	stakingAccountPrefix = []byte("staking/account/")

	stakingPoolKey   = []byte("staking/pool")
	auctionRecordKey = []byte("auction/record")
	priceHistoryKey  = []byte("pricing/history")
	buyoutRecordKey  = []byte("buyout/record")
	custodyRecordKey = []byte("custody/record")
	stateVersionKey  = []byte("state/version")
)

func prefixed(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part) + 1
	}
	key := make([]byte, 0, size)
	key = append(key, prefix...)
	for i, part := range parts {
		if i > 0 {
			key = append(key, ':')
		}
		key = append(key, part...)
	}
	return key
}
