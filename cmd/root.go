package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Conversational question answering over a document corpus",
	Long: `Docchat indexes a directory of documents into a semantic vector store
and answers questions about them with cited, grounded responses. Every
query runs a bounded retrieve-evaluate-refine loop and records a full
trace of what was retrieved and why.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".docchat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
