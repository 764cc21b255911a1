package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/config"
)

func newInitCommand(flags *globalFlags) *cobra.Command {
	var defaults, force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file, asking for the common settings",
		Long: `Init asks for the data file, theme, live reload and server address and
writes them to the config file. --defaults skips the questions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.config
			if path == "" {
				path = config.ConfigPath()
			}
			if path == "" {
				return errors.New("cannot determine config directory; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			cfg.Data.Path = flags.data
			if !defaults {
				form := newConfigForm(&cfg, cmd.InOrStdin(), cmd.OutOrStdout())
				if err := form.Run(); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "write defaults without asking")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// newConfigForm asks for the settings most people change. It falls back to
// the accessible line-by-line mode when stdin is not a terminal.
func newConfigForm(cfg *config.Config, in io.Reader, out io.Writer) *huh.Form {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data file").
				Description("YAML, JSON or SQLite. Leave empty to discover trustmap.* in the working directory.").
				Value(&cfg.Data.Path).
				Validate(validateDataPath),
			huh.NewConfirm().
				Title("Reload when the data file changes?").
				Value(&cfg.Data.Watch),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&cfg.UI.Theme),
			huh.NewConfirm().
				Title("Show the detail panel on wide terminals?").
				Value(&cfg.UI.ShowDetail),
			huh.NewInput().
				Title("Server address").
				Description("Used by trustmap serve.").
				Value(&cfg.Server.Addr).
				Validate(validateAddr),
		),
	).WithTheme(huh.ThemeDracula()).
		WithInput(in).
		WithOutput(out)

	f, ok := in.(*os.File)
	if !ok || !isTerminal(f) {
		form = form.WithAccessible(true)
	}
	return form
}

func validateDataPath(path string) error {
	if path == "" {
		return nil
	}
	if _, err := datasource.DetectType(path); err != nil {
		return err
	}
	return nil
}

func validateAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("want host:port: %w", err)
	}
	return nil
}
