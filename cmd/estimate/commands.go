package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"adstudio-backend/internal/estimate"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "estimate",
		Short:         "Quote generation time and credit cost",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newTaskCommand())
	root.AddCommand(newCostCommand())
	root.AddCommand(newRemainingCommand())

	return root
}

func newTaskCommand() *cobra.Command {
	var params estimate.Params

	cmd := &cobra.Command{
		Use:   "task <type>",
		Short: "Estimated duration of a task (create_actor, speech, lip_sync, first_frame, script, b_roll)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs := estimate.Estimate(estimate.TaskType(args[0]), params)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %ds\n", args[0], secs)
			return nil
		},
	}

	cmd.Flags().IntVar(&params.CharacterCount, "chars", 0, "script length in characters (speech)")
	cmd.Flags().Float64Var(&params.AudioDurationSeconds, "audio-seconds", 0, "driving audio length (lip_sync)")
	return cmd
}

func newCostCommand() *cobra.Command {
	costCmd := &cobra.Command{
		Use:   "cost",
		Short: "Credit cost of a stage",
	}

	var chars int
	voice := &cobra.Command{
		Use:   "voice",
		Short: "Voice cost, 0.25 credits per started 1000 characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chars < 0 {
				return fmt.Errorf("--chars must not be negative")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f credits\n", estimate.VoiceCost(chars))
			return nil
		},
	}
	voice.Flags().IntVar(&chars, "chars", 0, "script length in characters")

	var seconds float64
	video := &cobra.Command{
		Use:   "video",
		Short: "Video cost, 0.2 credits per second of audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seconds < 0 {
				return fmt.Errorf("--audio-seconds must not be negative")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f credits\n", estimate.VideoCost(seconds))
			return nil
		},
	}
	video.Flags().Float64Var(&seconds, "audio-seconds", 0, "audio length in seconds")

	costCmd.AddCommand(voice, video)
	return costCmd
}

func newRemainingCommand() *cobra.Command {
	var (
		startedAt string
		seconds   int
	)

	cmd := &cobra.Command{
		Use:   "remaining",
		Short: "Remaining time label for a running job",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startedAt)
			if err != nil {
				return fmt.Errorf("--started-at: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), estimate.RemainingTimeLabel(start, seconds, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&startedAt, "started-at", "", "job start time (RFC3339)")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "estimated duration in seconds")
	_ = cmd.MarkFlagRequired("started-at")
	return cmd
}
