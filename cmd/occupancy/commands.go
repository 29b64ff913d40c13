package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"roomly/internal/occupancy"
	"roomly/pkg/model"

	"github.com/spf13/cobra"
)

type roomReconciler interface {
	Inspect(ctx context.Context, roomID string) (*model.RoomOccupancy, error)
	Repair(ctx context.Context, roomID string) (*model.RoomOccupancy, error)
	ReconcileAll(ctx context.Context, concurrency int) (*occupancy.Report, error)
}

// errDrift makes `check` exit non-zero when the stored flags are wrong.
var errDrift = errors.New("room availability drifted from active bookings")

func newRootCmd(reconciler func() (roomReconciler, func(), error)) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "occupancy",
		Short:         "Inspect and repair room availability",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		reconcileCmd(reconciler),
		checkCmd(reconciler),
	)
	return rootCmd
}

func reconcileCmd(reconciler func() (roomReconciler, func(), error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recount active bookings and rewrite room availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, _ := cmd.Flags().GetString("room")
			all, _ := cmd.Flags().GetBool("all")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			if (roomID == "") == !all {
				return errors.New("exactly one of --room or --all is required")
			}

			r, closeFn, err := reconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			if all {
				report, err := r.ReconcileAll(cmd.Context(), concurrency)
				if report != nil {
					if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
						return werr
					}
				}
				if err != nil {
					return err
				}
				if len(report.Failed) > 0 {
					return fmt.Errorf("%d room(s) could not be reconciled", len(report.Failed))
				}
				return nil
			}

			result, err := r.Repair(cmd.Context(), roomID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().String("room", "", "Room ID to reconcile")
	cmd.Flags().Bool("all", false, "Reconcile every room")
	cmd.Flags().Int("concurrency", 4, "Rooms reconciled in parallel with --all")
	return cmd
}

func checkCmd(reconciler func() (roomReconciler, func(), error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report a room's recount without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, _ := cmd.Flags().GetString("room")
			if roomID == "" {
				return errors.New("--room is required")
			}

			r, closeFn, err := reconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := r.Inspect(cmd.Context(), roomID)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Drift {
				return errDrift
			}
			return nil
		},
	}

	cmd.Flags().String("room", "", "Room ID to check")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
