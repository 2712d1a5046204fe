package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "lend-demo",
	Short: "Runs demo systems on a shared world",
	Long: `Runs a set of demo systems on a shared world. Systems that do not
declare conflicting access are grouped into batches and run concurrently.`,
	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Spawns entities and runs all systems for a number of passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		stop, err := startProfile()
		if err != nil {
			return err
		}

		defer stop()

		stats, err := simulate(viper.GetInt("entities"), viper.GetInt("passes"))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "passes: %d, alive: %d, max x: %.2f\n", stats.Passes, stats.Alive, stats.MaxX)

		return nil
	},
}

var borrowsCmd = &cobra.Command{
	Use:   "borrows",
	Short: "Prints the declared borrows of all systems and their conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		for _, system := range demoSystems {
			fmt.Fprintf(out, "%s\t%s\n", system.Name, lend.SystemBorrows(system.Fn))
		}

		fmt.Fprintln(out)

		for _, a := range demoSystems {
			for _, b := range demoSystems {
				if a.Name >= b.Name {
					continue
				}

				conflicts := lend.SystemBorrows(a.Fn).Conflicts(lend.SystemBorrows(b.Fn))
				if len(conflicts) == 0 {
					continue
				}

				fmt.Fprintf(out, "%s\t%s\t%s <> %s\n", a.Name, b.Name, conflicts[0].Left, conflicts[0].Right)
			}
		}

		fmt.Fprintln(out)

		for idx, batch := range planBatches(demoSystems) {
			var names []string
			for _, system := range batch {
				names = append(names, system.Name)
			}

			fmt.Fprintf(out, "batch %d\t%s\n", idx, strings.Join(names, ", "))
		}

		return out.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(borrowsCmd)

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	runCmd.Flags().IntP("entities", "n", 1000, "Number of entities to spawn")
	runCmd.Flags().IntP("passes", "p", 100, "Number of passes to run all systems")
	runCmd.Flags().String("profile", "", "Write a profile, either 'cpu' or 'mem'")

	viper.SetEnvPrefix("LEND")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		panic(err)
	}
}

func configureLogging() {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func startProfile() (func(), error) {
	switch mode := viper.GetString("profile"); mode {
	case "":
		return func() {}, nil

	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop, nil

	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop, nil

	default:
		return nil, errors.Newf("unknown profile mode %q", mode)
	}
}
