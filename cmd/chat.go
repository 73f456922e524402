package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session over the indexed corpus",
	Long: `Opens a terminal chat session. Follow-up questions can reference
earlier turns; the session keeps a running summary and extracted facts
so pronouns and elliptical questions resolve against prior context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		orch := p.newOrchestrator()

		fmt.Printf("docchat: %d chunk(s) indexed. Type a question, or \"exit\" to quit.\n", p.store.Count())

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			answer, err := orch.HandleQuery(ctx, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n\n", answer)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
