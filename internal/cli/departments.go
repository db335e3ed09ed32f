package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/checks"
)

// newDepartmentsCommand creates the "departments" subcommand that lists the checklists.
func newDepartmentsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "List departments and their checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, catalog, err := loadConfigFromCmd(cmd, opts)
			if err != nil {
				return err
			}
			registry := checks.NewRegistry(cfg.DefaultCameras)
			p := newStatusPalette(cmd.OutOrStdout())

			var b strings.Builder
			for _, dept := range catalog.Departments {
				b.WriteString(p.title.Render(dept.Name))
				b.WriteString("\n")
				for _, name := range dept.Checks {
					if _, ok := registry.Lookup(name); ok {
						fmt.Fprintf(&b, "  %s\n", name)
						continue
					}
					fmt.Fprintf(&b, "  %s %s\n", name, p.faint.Render("(not implemented)"))
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
