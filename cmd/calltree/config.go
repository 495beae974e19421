package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/internal/output"
	"github.com/vividroyjeong/calltree/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration as TOML",
				Description: `Shows the merged configuration from defaults, the config file and
VDYP_SOURCE_DIR.

Examples:
  calltree config show
  calltree -c calltree.toml config show`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a calltree configuration file for syntax errors and invalid values.

Examples:
  calltree config validate                  # Validates default config locations
  calltree -c calltree.toml config validate # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "init",
				Usage: "Write a default calltree.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "calltree.toml",
						Usage: "Config file to create",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: runConfigInit,
			},
		},
	}
}

func loadOptions(c *cli.Context) []config.LoadOption {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return opts
}

func runConfigShow(c *cli.Context) error {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(w, string(content))
	return nil
}

// colorEnabled applies --no-color on top of output.color. Without a loaded
// config only the flag decides.
func colorEnabled(c *cli.Context, cfg *config.Config) bool {
	if c.Bool("no-color") {
		return false
	}
	return cfg == nil || cfg.Output.Color
}

func runConfigValidate(c *cli.Context) error {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		msg := output.NewMessenger(c.App.Writer, colorEnabled(c, nil), c.Bool("verbose"))
		msg.Error("Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	msg := output.NewMessenger(c.App.Writer, colorEnabled(c, result.Config), c.Bool("verbose"))
	if result.Source != "" {
		msg.Success("Configuration valid: %s", result.Source)
	} else {
		msg.Warning("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigInit(c *cli.Context) error {
	path := c.String("path")

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	var cfg *config.Config
	if result, err := config.LoadConfig(loadOptions(c)...); err == nil {
		cfg = result.Config
	}
	msg := output.NewMessenger(c.App.Writer, colorEnabled(c, cfg), false)
	msg.Success("Created %s", path)
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# calltree configuration\n")
	buf.WriteString("# source.root is overridden by VDYP_SOURCE_DIR and --source\n\n")
	buf.Write(content)
	return buf.String(), nil
}
