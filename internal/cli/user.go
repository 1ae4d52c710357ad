package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/paradox/internal/api/request"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Registration and profile commands",
	}

	cmd.AddCommand(newUserRegisterCmd())
	cmd.AddCommand(newUserShowCmd())
	cmd.AddCommand(newUserPresentCmd())
	cmd.AddCommand(newUserHintsCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

func newUserRegisterCmd() *cobra.Command {
	var (
		name   string
		email  string
		avatar string
	)

	cmd := &cobra.Command{
		Use:   "register <identity-id>",
		Short: "Register a participant and remember it as the acting identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result User
			err := client.Post("/api/v1/user", request.RegisterRequest{
				IdentityID:  args[0],
				DisplayName: name,
				Email:       email,
				AvatarURL:   avatar,
			}, &result)
			if err != nil {
				return err
			}

			if err := cfg.SaveIdentity(result.IdentityID); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [identity-id]",
		Short: "Show a participant and their progression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(args)
			if err != nil {
				return err
			}

			var result User
			if err := client.Get(userPath(id, ""), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newUserPresentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "present [identity-id]",
		Short: "Check whether an identity is registered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(args)
			if err != nil {
				return err
			}

			var result Presence
			if err := client.Get(userPath(id, "/present"), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newUserHintsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hints [identity-id]",
		Short: "List the hints unlocked at the current level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(args)
			if err != nil {
				return err
			}

			var result Hints
			if err := client.Get(userPath(id, "/hints"), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [identity-id]",
		Short: "Delete a participant and all their data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityArg(args)
			if err != nil {
				return err
			}

			if err := client.Delete(userPath(id, "")); err != nil {
				return err
			}

			outputFor(cmd).PrintMessage("Deleted " + id)
			return nil
		},
	}
}
