package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the indexed corpus",
	Long: `Runs one full query turn against the indexed corpus and prints the
cited answer. For follow-up questions with conversation memory, use
` + "`docchat chat`" + ` instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		answer, err := p.newOrchestrator().HandleQuery(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
