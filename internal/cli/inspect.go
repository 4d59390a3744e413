package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments <target>",
	Short: "List the instruments with data for a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		instruments, err := a.Star(args[0]).AvailableInstruments(cmd.Context())
		if err != nil {
			return err
		}
		for _, inst := range instruments {
			fmt.Fprintln(cmd.OutOrStdout(), inst)
		}
		return nil
	},
}

var pipelinesCmd = &cobra.Command{
	Use:   "pipelines <target> <instrument>",
	Short: "List the pipeline identifiers of an instrument",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pipes, err := a.Star(args[0]).PipelinesOfInstrument(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		for _, pipe := range pipes {
			fmt.Fprintln(cmd.OutOrStdout(), pipe)
		}
		return nil
	},
}

var modesCmd = &cobra.Command{
	Use:   "modes <target> <instrument> <pipeline>",
	Short: "List the observation modes of an instrument+pipeline pair",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		modes, err := a.Star(args[0]).ObservationModes(cmd.Context(), args[1], args[2])
		if err != nil {
			return err
		}
		for _, mode := range modes {
			fmt.Fprintln(cmd.OutOrStdout(), mode)
		}
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <target>",
	Short: "Print the instrument/pipeline/mode tree of a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Star(args[0]).Summary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), summary)
		return nil
	},
}

var rvsCmd = &cobra.Command{
	Use:   "rvs <target>",
	Short: "Extract timestamps, radial velocities, and their errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rvs, err := a.Star(args[0]).RadialVelocities(cmd.Context(), filterFromFlags(cmd))
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(rvs, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	},
}

var sptypeCmd = &cobra.Command{
	Use:   "sptype <target>",
	Short: "Resolve the spectral type of a target via SIMBAD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Star(args[0]).SpectralType(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), st)
		return nil
	},
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases <target>",
	Short: "List the cross-identifiers SIMBAD knows for a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.Star(args[0]).Aliases(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rvsCmd.Flags().String("instrument", "", "restrict to instruments containing this token")
	rvsCmd.Flags().String("pipeline", "", "restrict to pipelines containing this token")
	rvsCmd.Flags().String("mode", "", "restrict to observation modes containing this token")

	rootCmd.AddCommand(instrumentsCmd, pipelinesCmd, modesCmd, treeCmd, rvsCmd, sptypeCmd, aliasesCmd)
}
