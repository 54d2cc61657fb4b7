package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/config"
	"github.com/epochlab/protopack/internal/stage"
)

var (
	publishRegistry string
	publishForce    bool
	publishYes      bool
)

var publishCmd = &cobra.Command{
	Use:   "publish [targets]",
	Short: "Run the full pipeline and upload packages to a registry",
	Long: `Publish the requested targets to the test or production registry.

The full pipeline runs first, so nothing untested is ever uploaded. Publishing
to production asks for confirmation unless --yes is given. Registry credentials
come from environment variables named in the configuration; missing credentials
abort before any upload starts.

Examples:
  protopack publish --registry test
  protopack publish scripting web --registry production --yes`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishRegistry, "registry", config.RegistryTest,
		"registry to publish to (test or production)")
	publishCmd.Flags().BoolVar(&publishForce, "force", false,
		"re-run every stage even if completion markers exist")
	publishCmd.Flags().BoolVarP(&publishYes, "yes", "y", false,
		"skip the production confirmation prompt")
}

func runPublish(_ *cobra.Command, args []string) error {
	if publishRegistry != config.RegistryTest && publishRegistry != config.RegistryProduction {
		return fmt.Errorf("unknown registry %q (want %s or %s)",
			publishRegistry, config.RegistryTest, config.RegistryProduction)
	}

	if publishRegistry == config.RegistryProduction && !publishYes {
		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		v, err := versions.Get()
		if err != nil {
			return err
		}

		ok, err := confirm(fmt.Sprintf("Publish version %s to the production registry? [y/N] ", v))
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	return runPipeline(args, stage.Publish, publishForce, publishRegistry)
}

// confirm prompts on stdout and reads one line from stdin. Anything other
// than y or yes declines.
func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
