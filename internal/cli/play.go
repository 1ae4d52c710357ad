package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/paradox/internal/api/request"
)

// currentLevel returns level when set, otherwise the identity's current level
func currentLevel(id string, level int) (int, error) {
	if level > 0 {
		return level, nil
	}
	var user User
	if err := client.Get(userPath(id, ""), &user); err != nil {
		return 0, err
	}
	return user.Profile.Level, nil
}

func newHintCmd() *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "hint <tier>",
		Short: "Buy a hint tier for the current level",
		Long: `Buy a hint tier for the current level.

Tier 1 costs 20 coins, tier 2 costs 30 and tier 3 costs 40. Buying a tier
reveals every hint up to and including it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			id, err := identityArg(nil)
			if err != nil {
				return err
			}
			lvl, err := currentLevel(id, level)
			if err != nil {
				return err
			}

			var result HintPurchase
			err = client.Post("/api/v1/hint", request.HintRequest{
				IdentityID:    id,
				Level:         lvl,
				RequestedTier: tier,
			}, &result)
			if err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Level the hint is for (default: current level)")

	return cmd
}

func newAnswerCmd() *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "answer <answer>",
		Short: "Submit an answer for the current level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(nil)
			if err != nil {
				return err
			}
			lvl, err := currentLevel(id, level)
			if err != nil {
				return err
			}

			var result Outcome
			err = client.Post("/api/v1/answer", request.AnswerRequest{
				IdentityID: id,
				Level:      lvl,
				Answer:     args[0],
			}, &result)
			if err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Level being answered (default: current level)")

	return cmd
}

func newReferralCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "referral <code>",
		Short: "Redeem another participant's referral code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(nil)
			if err != nil {
				return err
			}

			var result Referral
			err = client.Post("/api/v1/referral", request.ReferralRequest{
				IdentityID: id,
				RefCode:    args[0],
			}, &result)
			if err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newCoinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coins <amount>",
		Short: "Grant coins to the acting identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			id, err := identityArg(nil)
			if err != nil {
				return err
			}

			var result Outcome
			err = client.Put("/api/v1/coins", request.CoinsRequest{
				IdentityID: id,
				Amount:     &amount,
			}, &result)
			if err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}
