package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/paradox/internal/api/request"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				q.Set("page_size", strconv.Itoa(pageSize))
			}
			path := "/api/v1/leaderboard"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []LeaderboardEntry
			if err := client.Get(path, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Entries per page")

	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect questions and hint sets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "questions",
		Short: "List every question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Question
			if err := client.Get("/api/v1/questions", &result); err != nil {
				return err
			}
			outputFor(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hints",
		Short: "List every hint set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []HintSet
			if err := client.Get("/api/v1/hints", &result); err != nil {
				return err
			}
			outputFor(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newMembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Team directory commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Member
			if err := client.Get("/api/v1/members", &result); err != nil {
				return err
			}
			outputFor(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "positions",
		Short: "List the valid member positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []string
			if err := client.Get("/api/v1/members/positions", &result); err != nil {
				return err
			}
			outputFor(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(newMembersAddCmd())

	return cmd
}

func newMembersAddCmd() *cobra.Command {
	var req request.AddMemberRequest

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]

			var result Member
			if err := client.Post("/api/v1/members", req, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Position, "position", "", "Position (see 'members positions')")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category")
	cmd.Flags().StringVar(&req.ImageURL, "image", "", "Image URL")
	cmd.Flags().StringVar(&req.GithubURL, "github", "", "GitHub profile URL")
	cmd.Flags().StringVar(&req.LinkedInURL, "linkedin", "", "LinkedIn profile URL")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}
