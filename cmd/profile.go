package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadeck-cli/internal/profile"
)

var (
	prLoad        loadFlags
	prOutputPath  string
	prSampleRows  int
	prOutliers    bool
	prOutlierThr  float64
	prProfileRows int
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Summarize every column: type, missing values, statistics and samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := prLoad.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		opt := profile.DefaultOptions()
		if prSampleRows >= 0 {
			opt.SampleRows = prSampleRows
		}
		if prProfileRows > 0 {
			opt.MaxRows = prProfileRows
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = prOutliers
		}
		if prOutlierThr > 0 {
			opt.OutlierThreshold = prOutlierThr
		}
		md := profile.Profile(ds, opt).Markdown()
		return writeOrPrint(cmd.OutOrStdout(), prOutputPath, []byte(md))
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	prLoad.register(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&prSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().IntVar(&prProfileRows, "profile-rows", 100000, "maximum rows to profile (0 = all loaded rows)")
	profileCmd.Flags().BoolVar(&prOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&prOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
