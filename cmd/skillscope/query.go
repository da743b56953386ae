package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"skillscope/dashboard/internal/dashboard"
	"skillscope/dashboard/internal/model"
	"skillscope/dashboard/internal/surface"
)

func (a *app) newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recommender readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client().Status(cmd.Context())
			if err != nil {
				// Same fallback the dashboard shows when a check fails.
				down := model.NotConnected()
				fmt.Fprintln(cmd.OutOrStdout(), surface.StatusLine(&down))
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), surface.StatusLine(&st))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status as JSON")
	return cmd
}

func (a *app) newUsersCmd() *cobra.Command {
	var (
		limit  int
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users in the recommender's directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				users []model.User
				err   error
			)
			if limit > 0 {
				users, err = a.client().UsersLimit(cmd.Context(), limit)
			} else {
				users, err = a.client().Users(cmd.Context())
			}
			if err != nil {
				return err
			}
			users = dashboard.FilterUsers(users, query)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), users)
			}
			surface.RenderUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most this many users")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or primary focus")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) newJobsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs in the recommender's directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				jobs []model.Job
				err  error
			)
			if limit > 0 {
				jobs, err = a.client().JobsLimit(cmd.Context(), limit)
			} else {
				jobs, err = a.client().Jobs(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), jobs)
			}
			surface.RenderJobs(cmd.OutOrStdout(), jobs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most this many jobs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) newRecommendCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "recommend <user-id>",
		Short: "Show skill recommendations and job matches for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			rec, err := a.client().Recommend(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			surface.RenderRecommendation(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) newGapsCmd() *cobra.Command {
	var (
		jobID  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "gaps <user-id>",
		Short: "Show a user's skill gaps against the market or one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			var gaps []model.SkillGap
			if jobID > 0 {
				gaps, err = a.client().SkillGapsForJob(cmd.Context(), id, jobID)
			} else {
				gaps, err = a.client().SkillGaps(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), gaps)
			}
			surface.RenderSkillGaps(cmd.OutOrStdout(), gaps)
			return nil
		},
	}
	cmd.Flags().IntVar(&jobID, "job-id", 0, "compare against this job instead of the whole market")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func parseUserID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
