package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"SpectraDL/internal/domain"
	"SpectraDL/internal/star"
)

var downloadCmd = &cobra.Command{
	Use:   "download <target>",
	Short: "Bulk-download raw spectroscopy files for a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = a.Config().Download.OutputDir
		}
		fileType, _ := cmd.Flags().GetString("file-type")
		if fileType == "" {
			fileType = a.Config().Download.FileType
		}

		opts := star.DefaultDownloadOptions(out)
		opts.FileType = fileType
		opts.Force, _ = cmd.Flags().GetBool("force")
		opts.Unzip, _ = cmd.Flags().GetBool("unzip")
		opts.CommonRootFolder, _ = cmd.Flags().GetBool("flatten")
		opts.AllowSubfolders, _ = cmd.Flags().GetBool("subfolders")

		filter := filterFromFlags(cmd)
		opts.Instrument = filter.Instrument
		opts.Pipeline = filter.Pipeline
		opts.Mode = filter.Mode

		count, err := a.Star(args[0]).Download(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "processed %d matching entries\n", count)
		return nil
	},
}

func filterFromFlags(cmd *cobra.Command) domain.Filter {
	instrument, _ := cmd.Flags().GetString("instrument")
	pipeline, _ := cmd.Flags().GetString("pipeline")
	mode, _ := cmd.Flags().GetString("mode")
	return domain.Filter{Instrument: instrument, Pipeline: pipeline, Mode: mode}
}

func init() {
	downloadCmd.Flags().String("out", "", "output directory (defaults to config)")
	downloadCmd.Flags().String("instrument", "", "restrict to instruments containing this token")
	downloadCmd.Flags().String("pipeline", "", "restrict to pipelines containing this token")
	downloadCmd.Flags().String("mode", "", "restrict to observation modes containing this token")
	downloadCmd.Flags().String("file-type", "", "archive file-type filter (defaults to config)")
	downloadCmd.Flags().Bool("force", false, "download even if files exist on disk")
	downloadCmd.Flags().Bool("unzip", true, "extract the retrieved bundle")
	downloadCmd.Flags().Bool("flatten", true, "move extracted data files to the destination root")
	downloadCmd.Flags().Bool("subfolders", true, "split destinations by instrument and pipeline")

	rootCmd.AddCommand(downloadCmd)
}
