package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"decisionsim/adapters/stageconfig"
	"decisionsim/app"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/internal"
	"decisionsim/internal/config"
	"decisionsim/internal/container"
	"decisionsim/internal/errors"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "decisionsim",
		Short:         "Play and inspect decision-simulation stage sets from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("set", "", "stage set name or YAML path (overrides STAGE_SET)")

	rootCmd.AddCommand(
		newPlayCmd(),
		newStagesCmd(),
		newResultCmd(),
		newRestartCmd(),
		newExportCmd(),
		newHistoryCmd(),
		newGroupCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openContainer wires the application from the environment. Logs stay quiet
// unless LOG_LEVEL asks otherwise so they don't mix with prompts.
func openContainer(cmd *cobra.Command) (*container.Container, func(), error) {
	if set, _ := cmd.Flags().GetString("set"); set != "" {
		os.Setenv("STAGE_SET", set)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "ERROR")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))

	c, err := container.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Shutdown(context.Background()) }, nil
}

func newStagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Inspect stage sets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [set]",
		Short: "List built-in sets, or the stages of one set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range stageconfig.Builtins() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			set, err := stageconfig.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%d stages)\n", set.Title, set.Len())
			for i, st := range set.Stages() {
				fmt.Fprintf(out, "%2d. [%s] %s\n", i+1, st.Kind, st.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <set>",
		Short: "Load a stage set and report whether it is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := stageconfig.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d stages, %d aspects, fingerprint %s)\n",
				set.Name, set.Len(), set.Aspects.Len(), core.Hash(set.Fingerprint).Short())
			return nil
		},
	})
	return cmd
}

func newResultCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "result",
		Short: "Print the final result of the completed session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := c.Sessions.Result(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return c.Reports.JSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd, c.Set.Aspects, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Discard progress and start over from the first stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := c.Sessions.Restart(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s restarted at stage 1 of %d\n", s.ID, c.Set.Len())
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the final result as json, csv, xlsx, md or html",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := c.Sessions.Result(cmd.Context())
			if err != nil {
				return err
			}
			history, err := c.History.List(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return errors.Wrap(err, "failed to create export file")
				}
				defer f.Close()
				w = f
			} else if format == app.FormatXLSX {
				return errors.InvalidInput("--out is required for xlsx exports")
			}
			return c.Reports.Write(w, format, summary, history)
		},
	}
	cmd.Flags().StringVar(&format, "format", app.FormatJSON, "json, csv, xlsx, md or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect finished sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List finished sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			history, err := c.History.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No finished sessions")
				return nil
			}
			for _, s := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %5.2f  %-24s  %s\n",
					s.FinishedAt.Time().Format("2006-01-02 15:04"), s.Average, s.Band, s.Risk)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Aggregate finished sessions per aspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := c.History.Stats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return c.History.Clear(cmd.Context())
		},
	})
	return cmd
}

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage the collector group this device answers for",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored unit, event and group",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			g, err := c.Groups.Current(cmd.Context())
			if err != nil {
				return err
			}
			printGroup(cmd, g)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unit <code>",
		Short: "Select the unit and look up its active event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, ok := c.Set.UnitID(strings.ToUpper(args[0])); !ok {
				return errors.InvalidInput("unknown unit, expected one of " + strings.Join(sortedKeys(c.Set.Units()), ", "))
			}

			g, err := c.Groups.SelectUnit(cmd.Context(), strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			printGroup(cmd, g)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register <name>",
		Short: "Register a group name for the active event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			g, err := c.Groups.Register(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printGroup(cmd, g)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the groups registered for the active event",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			groups, err := c.Groups.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", g.ID, g.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "score",
		Short: "Show the group's score as recorded by the collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			score, err := c.Groups.RemoteScore(cmd.Context())
			if err != nil {
				return err
			}
			printScore(cmd, c.Set.Aspects, score)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored unit, event and group",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return c.Groups.Clear(cmd.Context())
		},
	})
	return cmd
}

func printGroup(cmd *cobra.Command, g session.GroupContext) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "unit:  %s (%d)\n", orDash(g.UnitCode), g.UnitID)
	fmt.Fprintf(out, "event: %d\n", g.EventID)
	fmt.Fprintf(out, "group: %s (%d)\n", orDash(g.GroupName), g.GroupID)
	if missing := g.Missing(); len(missing) > 0 {
		fmt.Fprintf(out, "missing: %s\n", strings.Join(missing, ", "))
	}
}

func printScore(cmd *cobra.Command, set aspect.Set, score aspect.Score) {
	for _, a := range set.Keys() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %3d\n", set.Label(a), score[a])
	}
}

func printSummary(cmd *cobra.Command, set aspect.Set, s session.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Resultado")
	printScore(cmd, set, s.Score)
	fmt.Fprintf(out, "Média: %.2f (%d)\n", s.Average, s.Rounded)
	fmt.Fprintf(out, "Perfil: %s\n", s.Band)
	fmt.Fprintf(out, "Risco: %s\n", s.Risk)
	if len(s.Recommendations) > 0 {
		fmt.Fprintln(out, "Recomendações:")
		for _, r := range s.Recommendations {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sortedKeys returns the keys of m in lexical order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
