package model

// Economy rules
const (
	StartingLevel      = 1
	StartingCoins      = 100
	StartingBonusCoins = 100

	CorrectAnswerReward = 100
	CorrectAnswerScore  = 10
	ReferralReward      = 100

	MaxCoinGrant = 100
	MaxHintTier  = 3

	MinDisplayNameLength     = 3
	ReferralCodePrefixLength = 3
	ReferralCodeSuffixLength = 6
)

var hintCosts = map[int]int{
	1: 20,
	2: 30,
	3: 40,
}

// HintCost returns the coin price of a hint tier.
func HintCost(tier int) (int, bool) {
	cost, ok := hintCosts[tier]
	return cost, ok
}
