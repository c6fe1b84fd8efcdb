package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/benchkv/benchkv/internal/backends/all"
)

var (
	configFile string

	// Build information variables, overridden by the linker.
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("benchkv v%s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "benchkv",
	Short: "Uniform benchmark client for key-value and record stores",
	Long: "benchkv drives the same read/scan/update/insert/delete workload against any of its " +
		"supported database backends through one client contract.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupConnectionFlags()

	cobra.OnInitialize(func() {
		if err := initConfig(configFile); err != nil {
			fmt.Printf("Error initializing config: %v\n", err)
			os.Exit(1)
		}
	})

	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig wires flags, the BENCHKV_ environment and an optional YAML file
// into one settings source. Flags win over the environment, the environment
// wins over the file.
func initConfig(path string) error {
	viper.SetEnvPrefix("benchkv")
	viper.AutomaticEnv()

	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	return nil
}

func main() {
	Execute()
}
