// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-onedatafs.
//
// go-onedatafs is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-onedatafs/pkg/cli"
	"github.com/jeremyhahn/go-onedatafs/pkg/version"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	globalConfig *cli.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "onedatafs",
	Short: "A CLI for browsing and managing Onedata spaces",
	Long: `onedatafs is a CLI for browsing and managing files in Onedata spaces.

Paths name the space in their first segment, e.g. /demo/reports/q3.pdf.
With --space set, paths are rooted inside that space instead and the
space segment is omitted.

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (ONEDATAFS_*)
  - Configuration file (~/.onedatafs.yaml or ./.onedatafs.yaml)
  - Default values (lowest priority)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize viper configuration
		var err error
		viperConfig, err = cli.InitConfig(cfgFile)
		if err != nil {
			return err
		}

		// Bind flags to viper
		if err := viperConfig.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		// Get the configuration
		globalConfig = cli.GetConfig(viperConfig)

		return nil
	},
}

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List the spaces accessible with the configured token",
	Long:  `List all spaces the configured access token can reach, with their IDs and provider counts.`,
	Example: `  onedatafs spaces                               # List all spaces
  onedatafs spaces -o json                       # List spaces as JSON
  onedatafs spaces -o table                      # List spaces in table format`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		spaces, err := ctx.SpacesCommand()
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		fmt.Print(cli.FormatSpacesResult(spaces, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List directory contents",
	Long: `List the entries of a directory in a space.
Without a path, lists the root. At the root, entries are the spaces themselves.`,
	Example: `  onedatafs ls                                   # List spaces at the root
  onedatafs ls /demo                             # List the demo space root
  onedatafs ls /demo/reports                     # List a subdirectory
  onedatafs ls /demo -o json                     # List as JSON
  onedatafs --space demo ls /reports             # List within a bound space`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dirPath := "/"
		if len(args) > 0 {
			dirPath = args[0]
		}

		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		entries, err := ctx.ListCommand(dirPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		fmt.Print(cli.FormatListResult(entries, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show file or directory attributes",
	Long:  `Show the attributes of a file or directory, including its Onedata file ID when available.`,
	Example: `  onedatafs stat /demo/reports/q3.pdf            # Show file attributes
  onedatafs stat /demo                           # Show space root attributes
  onedatafs stat /demo/reports -o json           # Attributes as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		info, err := ctx.StatCommand(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		fmt.Print(cli.FormatStatResult(info, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print file contents to stdout",
	Long:  `Stream the contents of a file to stdout.`,
	Example: `  onedatafs cat /demo/notes.txt                  # Print a file
  onedatafs cat /demo/data.csv | head            # Pipe into other tools`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.GetCommand(args[0], "-"); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <remote-path> [local-path]",
	Short: "Download a file from a space",
	Long: `Download a file from a space to the local filesystem.
Without a local path, the file is saved under its own name in the
current directory. Use '-' as the local path to write to stdout.`,
	Example: `  onedatafs get /demo/reports/q3.pdf             # Download as ./q3.pdf
  onedatafs get /demo/reports/q3.pdf backup.pdf  # Download to a given name
  onedatafs get /demo/notes.txt -                # Write to stdout`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remotePath := args[0]
		outputPath := path.Base(remotePath)
		if len(args) > 1 {
			outputPath = args[1]
		}

		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.GetCommand(remotePath, outputPath); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		// Only print success message if not writing to stdout
		if outputPath != "" && outputPath != "-" {
			result := &cli.OperationResult{
				Success: true,
				Message: fmt.Sprintf("Successfully downloaded '%s' to '%s'", remotePath, outputPath),
			}
			fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		}
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put <local-path> <remote-path>",
	Short: "Upload a file into a space",
	Long: `Upload a local file to the given path in a space.
Use '-' as the local path to read from stdin. Existing files are replaced.`,
	Example: `  onedatafs put report.pdf /demo/reports/q3.pdf  # Upload a local file
  cat notes.txt | onedatafs put - /demo/notes.txt # Upload from stdin
  onedatafs --space demo put report.pdf /reports/q3.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		localPath := args[0]
		remotePath := args[1]

		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.PutCommand(localPath, remotePath); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		// Format success message based on input source
		var message string
		if localPath == "" || localPath == "-" {
			message = fmt.Sprintf("Successfully uploaded data from stdin to '%s'", remotePath)
		} else {
			message = fmt.Sprintf("Successfully uploaded '%s' to '%s'", localPath, remotePath)
		}

		result := &cli.OperationResult{
			Success: true,
			Message: message,
		}
		fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory",
	Long: `Create a directory in a space.
With --parents, missing intermediate directories are created as well.`,
	Example: `  onedatafs mkdir /demo/reports                  # Create a directory
  onedatafs mkdir -p /demo/a/b/c                 # Create parents as needed
  onedatafs mkdir /demo/secret --mode 700        # Create with specific permissions`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parents, _ := cmd.Flags().GetBool("parents") //nolint:errcheck // flags are validated by cobra
		mode, _ := cmd.Flags().GetString("mode")     //nolint:errcheck // flags are validated by cobra

		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.MkdirCommand(args[0], parents, mode); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Successfully created directory '%s'", args[0]),
		}
		fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or directory",
	Long: `Remove a file or an empty directory from a space.
With --recursive, directories are removed with all of their contents.`,
	Example: `  onedatafs rm /demo/old.txt                     # Remove a file
  onedatafs rm /demo/empty-dir                   # Remove an empty directory
  onedatafs rm -r /demo/scratch                  # Remove a directory tree`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive") //nolint:errcheck // flags are validated by cobra

		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.RemoveCommand(args[0], recursive); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Successfully removed '%s'", args[0]),
		}
		fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <source> <destination>",
	Short: "Move or rename a file or directory",
	Long: `Move or rename a file or directory. The destination may live in a
different space; the transfer is then performed by the providers.`,
	Example: `  onedatafs mv /demo/draft.txt /demo/final.txt   # Rename within a space
  onedatafs mv /demo/old.log /archive/old.log    # Move across spaces
  onedatafs mv /demo/reports /demo/reports-2025  # Rename a directory`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.MoveCommand(args[0], args[1]); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Successfully moved '%s' to '%s'", args[0], args[1]),
		}
		fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var chmodCmd = &cobra.Command{
	Use:   "chmod <mode> <path>",
	Short: "Change file or directory permissions",
	Long:  `Change the permission bits of a file or directory. The mode is an octal string such as 644 or 0755.`,
	Example: `  onedatafs chmod 600 /demo/secret.txt           # Restrict a file
  onedatafs chmod 755 /demo/scripts/run.sh       # Make executable
  onedatafs chmod 2750 /demo/shared              # Set the setgid bit`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		if err := ctx.ChmodCommand(args[1], args[0]); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Successfully changed mode of '%s' to %s", args[1], args[0]),
		}
		fmt.Print(cli.FormatOperationResult(result, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings. Secrets are masked.`,
	Example: `  onedatafs config                               # Show current config
  onedatafs config -o json                       # Show config as JSON
  onedatafs --zone-host onezone.example.com config  # Preview config`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The config command only displays settings, no client is needed
		fmt.Print(cli.DisplayConfig(globalConfig, globalConfig.OutputFormat))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the zone",
	Long: `Check that the Onezone service is reachable with the configured
credentials. Reports the number of accessible spaces.`,
	Example: `  onedatafs health                               # Check connectivity
  onedatafs health -o json                       # Health status as JSON`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}
		defer func() { _ = ctx.Close() }()

		health, err := ctx.HealthCommand()
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err, cli.OutputFormat(globalConfig.OutputFormat)))
			return err
		}

		fmt.Print(cli.FormatHealthResult(health, cli.OutputFormat(globalConfig.OutputFormat)))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Long:  `Print the onedatafs version.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Get())
		return nil
	},
}

func init() {
	// Set custom usage template to always show examples (even on errors)
	cobra.AddTemplateFunc("hasExamples", func(cmd *cobra.Command) bool {
		return len(cmd.Example) > 0
	})

	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

	// Apply template to all commands
	rootCmd.SetUsageTemplate(usageTemplate)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.onedatafs.yaml)")
	rootCmd.PersistentFlags().String("zone-host", "", "Onezone host, e.g. onezone.example.com")
	rootCmd.PersistentFlags().String("token", "", "Onedata access token")
	rootCmd.PersistentFlags().String("token-file", "", "file containing the access token")
	rootCmd.PersistentFlags().String("space", "", "operate within a single space")
	rootCmd.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().String("ca-cert", "", "PEM file with additional trusted CA certificates")
	rootCmd.PersistentFlags().Int("timeout", 30, "request timeout in seconds")
	rootCmd.PersistentFlags().Int("page-limit", 1000, "directory listing page size")
	rootCmd.PersistentFlags().Int("max-retries", 3, "retries for timed out requests")
	rootCmd.PersistentFlags().StringP("output-format", "o", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log requests to stderr")

	// mkdir command flags
	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")
	mkdirCmd.Flags().String("mode", "775", "permissions for the new directory (octal)")

	// rm command flags
	rmCmd.Flags().BoolP("recursive", "r", false, "remove directories and their contents")

	// Add commands to root
	rootCmd.AddCommand(spacesCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(chmodCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)

	// Apply usage template to all commands to ensure examples always show
	for _, cmd := range rootCmd.Commands() {
		cmd.SetUsageTemplate(usageTemplate)
	}
}
