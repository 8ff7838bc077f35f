package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/assistant/cmd/api/commands"
)

// @title Assistant API
// @version 1.0
// @description Personal assistant backend: tasks, notes, events, timers, email and a tool-calling chat endpoint

// @contact.name Assistant Maintainers
// @contact.url https://github.com/taskmaster/assistant

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Assistant API server",
		Long:          `Assistant is a personal-assistant backend that lets a language model manage tasks, notes, events, timers and email on a user's behalf.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
