package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
	"github.com/tribunales-evau/bundler/internal/templates"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var (
		templateFlag string
		nameFlag     string
		outDirFlag   string
		forceFlag    bool
	)

	c := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new project from a template",
		Long: `Create a bundler.yaml and starter sources in dir (default: the working
directory).

Templates:
  spa       Vue single-page application with injected styles (default)
  library   Plain JavaScript library with content-hashed output

Examples:
  # Vue app in ./web that builds into the backend's static directory
  bundler init web --out-dir ../backend/static/vue

  # Library in the working directory
  bundler init --template library`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			res, err := templates.NewGenerator(templates.GenerateOptions{
				TargetDir:    dir,
				TemplateName: templateFlag,
				ProjectName:  nameFlag,
				OutDir:       outDirFlag,
				Force:        forceFlag,
			}).Generate()
			if err != nil {
				return exitError(oerrors.NewValidationError(err.Error(), dir,
					"valid templates: "+strings.Join(templates.Names(), ", ")), false)
			}

			w := c.OutOrStdout()
			fmt.Fprintln(w, output.FormatCheckmark(fmt.Sprintf("Created %s project in %s", res.TemplateName, res.TargetDir)))
			for _, f := range res.Files {
				fmt.Fprintln(w, "  "+f)
			}
			fmt.Fprintln(w, "Build with: bundler build -c "+res.TargetDir+"/bundler.yaml")
			return nil
		},
	}

	c.Flags().StringVarP(&templateFlag, "template", "t", templates.DefaultTemplateName, "project template: "+strings.Join(templates.Names(), ", "))
	c.Flags().StringVar(&nameFlag, "name", "", "project name (default: directory name)")
	c.Flags().StringVar(&outDirFlag, "out-dir", templates.DefaultOutDir, "outDir written to bundler.yaml")
	c.Flags().BoolVarP(&forceFlag, "force", "f", false, "write into a non-empty directory")
	return c
}
