package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/model"
)

var (
	runFile  string
	runDebug bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a workflow from a file once",
		Long: `Execute a workflow definition from a JSON file without persisting
anything. Useful for trying out a pipeline before saving it.

Use -f to point at the workflow file and --debug to dump the full execution
report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := mustLoadConfig()
			if err != nil {
				return err
			}
			defer lg.Sync()

			body, err := os.ReadFile(runFile)
			if err != nil {
				return fmt.Errorf("cannot read workflow file: %w", err)
			}

			wf := &model.Workflow{}
			if err := json.Unmarshal(body, wf); err != nil {
				return fmt.Errorf("cannot parse workflow file: %w", err)
			}

			if result := workflowengine.ValidateWorkflow(wf); !result.IsValid {
				for _, msg := range result.Errors {
					fmt.Fprintf(os.Stderr, "invalid: %s\n", msg)
				}
				return fmt.Errorf("workflow failed validation")
			}

			deps, err := buildDependencies(cfg, lg)
			if err != nil {
				return err
			}

			engine := workflowengine.NewEngine(deps)
			summary, err := engine.Execute(context.Background(), wf, nil)
			if err != nil {
				return err
			}

			if runDebug {
				pp.Println(summary)
				return nil
			}

			fmt.Printf("%s: %d/%d blocks succeeded in %dms\n",
				summary.Status, summary.SuccessfulBlocks, summary.TotalBlocks, summary.TotalExecutionTime)
			for _, outcome := range summary.Results {
				line := fmt.Sprintf("  [%s] %s (%s)", outcome.Status, outcome.BlockID, outcome.BlockType)
				if outcome.Error != "" {
					line += ": " + outcome.Error
				}
				fmt.Println(line)
			}
			return nil
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "path to workflow JSON file")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "dump the full execution report")
	runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}
