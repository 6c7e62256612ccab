package cli

import "github.com/spf13/cobra"

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("mediamap version %s\n", version)
		},
	}
}
