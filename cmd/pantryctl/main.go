// Command pantryctl is the CLI client for the pantry agent daemon: a
// REPL over /chat and /chat/confirm, with an optional bubbletea
// progress view over the daemon's websocket stream.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	authToken  string
	useTUI     bool
)

func main() {
	root := &cobra.Command{
		Use:   "pantryctl",
		Short: "pantry agent CLI client",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "pantryd base URL")
	root.PersistentFlags().StringVar(&authToken, "token", "", "bearer token (also the user id, by default)")

	root.AddCommand(chatCmd())
	root.AddCommand(sessionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			requireToken()
			client := newAPIClient(serverAddr, authToken)
			sessionID := uuid.NewString()
			return runREPL(client, sessionID, useTUI)
		},
	}
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a live bubbletea progress view alongside each turn")
	return cmd
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "inspect or reset your session"}

	status := &cobra.Command{
		Use:   "status",
		Short: "print the current session's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			requireToken()
			client := newAPIClient(serverAddr, authToken)
			resp, err := client.get(context.Background(), "/session/status")
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "clear pending confirmation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			requireToken()
			client := newAPIClient(serverAddr, authToken)
			_, err := client.postRaw(context.Background(), "/session/clear", nil)
			return err
		},
	}

	cmd.AddCommand(status, clear)
	return cmd
}

func requireToken() {
	if authToken == "" {
		authToken = uuid.NewString()
	}
}
