package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"namegrouper/internal/words"
)

var (
	groupDelimiter string
	groupStrategy  string
)

// groupCmd groups names once without storing a task
var groupCmd = &cobra.Command{
	Use:   "group [names...]",
	Short: "Group names once and print the result as JSON",
	Long: `Groups the given names and prints the grouping, without touching the
task store.

Names come from the arguments, or from stdin (one per line) when no
arguments are given.

Examples:
  namegrouper group foo_a foo_b bar
  cat columns.txt | namegrouper group --delimiter . --strategy trie`,
	RunE: runGroup,
}

func init() {
	groupCmd.Flags().StringVarP(&groupDelimiter, "delimiter", "d", words.DefaultDelimiter, "Word delimiter")
	groupCmd.Flags().StringVarP(&groupStrategy, "strategy", "s", words.StrategyPrefix, "Grouping strategy (prefix or trie)")
}

func runGroup(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				names = append(names, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read names: %w", err)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no names given (pass them as arguments or on stdin)")
	}

	logger.Debug("Grouping names",
		zap.Int("count", len(names)),
		zap.String("delimiter", groupDelimiter),
		zap.String("strategy", groupStrategy))

	grouping, err := words.GroupWithStrategy(names, groupDelimiter, groupStrategy)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(grouping, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode grouping: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
