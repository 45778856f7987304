package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "~/.config/namegnome/config.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Printf("wrote sample config to %s\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return err
			}
			if exists {
				fmt.Printf("# loaded from %s\n", path)
			} else {
				fmt.Println("# built-in defaults (no config file found)")
			}
			return printJSON(cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
