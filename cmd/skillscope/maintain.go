package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/model"
	"skillscope/dashboard/internal/surface"
)

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the recommender to reload its data, then show its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.client()
			res, refreshErr := client.Refresh(cmd.Context())
			if refreshErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Refresh: %s %s\n", res.Status, res.Message)
			}

			// The status is re-read even when the refresh failed.
			st, err := client.Status(cmd.Context())
			if err != nil {
				st = model.NotConnected()
			}
			fmt.Fprintln(cmd.OutOrStdout(), surface.StatusLine(&st))
			return refreshErr
		},
	}
}

func (a *app) newUploadCmd() *cobra.Command {
	var noRefresh bool
	cmd := &cobra.Command{
		Use:       "upload <users|jobs> <file.json>",
		Short:     "Replace the recommender's users or jobs data with a JSON file",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(model.UploadUsers), string(model.UploadJobs)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseUploadKind(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			client := a.client()
			res, err := client.Upload(cmd.Context(), kind, gateway.File{Name: filepath.Base(args[1]), Data: data})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload: %s %s\n", res.Status, res.Message)
			if noRefresh {
				return nil
			}

			ref, err := client.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refresh: %s %s\n", ref.Status, ref.Message)
			st, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), surface.StatusLine(&st))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "skip the refresh that normally follows a successful upload")
	return cmd
}
