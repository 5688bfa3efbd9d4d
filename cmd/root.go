package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/namvu/quizbridge/pkg/protocol"
)

// Version is set at build time via -ldflags "-X github.com/namvu/quizbridge/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quizbridge",
	Short: "quizbridge — WhatsApp quiz bridge and agent gateway",
	Long:  "quizbridge connects a WhatsApp bridge to an agent over a WebSocket control channel, routing chat messages to the agent and running quiz rounds in group chats.",
	Run: func(cmd *cobra.Command, args []string) {
		runGateway()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $QUIZBRIDGE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge gateway (same as running with no subcommand)",
		Run: func(cmd *cobra.Command, args []string) {
			runGateway()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quizbridge %s (protocol %d)\n", Version, protocol.ProtocolVersion)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("QUIZBRIDGE_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
