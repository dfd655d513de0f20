package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/model"
)

var (
	validateFile string

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate a workflow file",
		Long: `Run the structural pre-flight check on a workflow JSON file and
print every problem found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(validateFile)
			if err != nil {
				return fmt.Errorf("cannot read workflow file: %w", err)
			}

			wf := &model.Workflow{}
			if err := json.Unmarshal(body, wf); err != nil {
				return fmt.Errorf("cannot parse workflow file: %w", err)
			}

			result := workflowengine.ValidateWorkflow(wf)
			if result.IsValid {
				fmt.Println("workflow is valid")
				return nil
			}

			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "invalid: %s\n", msg)
			}
			return fmt.Errorf("workflow failed validation with %d error(s)", len(result.Errors))
		},
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "path to workflow JSON file")
	validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}
