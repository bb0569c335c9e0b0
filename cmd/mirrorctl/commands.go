package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
		client  *apiClient
	)
	root := &cobra.Command{
		Use:           "mirrorctl",
		Short:         "CLI client for the MindMirror API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client = newAPIClient(apiURL, timeout)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&apiURL, "api", "a", "http://localhost:8000", "MindMirror service base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "Request timeout")

	show := func(data []byte, err error) error {
		if err != nil {
			return err
		}
		return writePretty(out, data)
	}

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(client.get("/v0/health", nil))
		},
	})

	windowed := func(use, short, prefix string, defDays int) *cobra.Command {
		var days int
		cmd := &cobra.Command{
			Use:   use + " USER_ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if days < 0 {
					return fmt.Errorf("--days must be >= 0")
				}
				q := map[string]string{"days": strconv.Itoa(days)}
				return show(client.get(userPath(prefix, args[0]), q))
			},
		}
		cmd.Flags().IntVarP(&days, "days", "d", defDays, "Look-back window in days")
		return cmd
	}
	root.AddCommand(windowed("history", "Show recent entries with trends", "/api/history", 7))
	root.AddCommand(windowed("trends", "Show mood trends and insights", "/api/trends", 30))
	root.AddCommand(windowed("stats", "Show mood statistics", "/api/stats", 30))

	var limit int
	similarCmd := &cobra.Command{
		Use:   "similar USER_ID QUERY",
		Short: "Find past entries related to a query",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := map[string]string{"q": args[1], "limit": strconv.Itoa(limit)}
			return show(client.get(userPath("/api/similar", args[0]), q))
		},
	}
	similarCmd.Flags().IntVarP(&limit, "limit", "k", 5, "Number of results")
	root.AddCommand(similarCmd)

	var focus string
	var recent []string
	reflectCmd := &cobra.Command{
		Use:   "reflect MOOD",
		Short: "Ask for a reflection prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]map[string]string, 0, len(recent))
			for _, m := range recent {
				entries = append(entries, map[string]string{"mood": m})
			}
			body := map[string]interface{}{"current_mood": args[0], "recent_entries": entries}
			if focus != "" {
				body["focus_area"] = focus
			}
			return show(client.postJSON("/api/reflection", body))
		},
	}
	reflectCmd.Flags().StringVarP(&focus, "focus", "f", "", "Focus area")
	reflectCmd.Flags().StringSliceVarP(&recent, "recent", "r", nil, "Recent moods, oldest first")
	root.AddCommand(reflectCmd)

	var user string
	analyzeCmd := &cobra.Command{
		Use:   "analyze AUDIO_FILE",
		Short: "Upload a recording for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(client.uploadAudio("/api/analyze", args[0], user))
		},
	}
	analyzeCmd.Flags().StringVarP(&user, "user", "u", "", "User ID (defaults to default_user)")
	root.AddCommand(analyzeCmd)

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete every entry of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}
			return show(client.delete(userPath("/api/users", args[0]) + "/entries"))
		},
	}
	deleteCmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	root.AddCommand(deleteCmd)

	return root
}
