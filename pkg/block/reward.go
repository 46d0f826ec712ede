package block

// RewardHalvingInterval is the number of blocks between successive halvings
// of the block reward.
const RewardHalvingInterval uint64 = 2_102_400

// InitialReward is the coinbase reward paid at height 0, before any halving.
const InitialReward uint64 = 2_000_000

// ExpectedReward returns the coinbase reward due at height, halving every
// RewardHalvingInterval blocks and flooring at zero once InitialReward has
// been halved past its last bit.
func ExpectedReward(height uint64) uint64 {
	halvings := height / RewardHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialReward >> halvings
}
