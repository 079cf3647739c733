package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// runREPL is the line-edited input loop: each line is sent as a chat
// turn (with the bubbletea progress view alongside it when useTUI is
// set), confirmations are resolved via an interactive picker, and the
// reply is rendered as markdown.
func runREPL(client *apiClient, sessionID string, useTUI bool) error {
	rl, err := readline.New("pantry> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if useTUI {
			go func() { _ = runProgressTUI(client.streamURL(sessionID)) }()
		}

		resp, err := client.chat(ctx, line, sessionID)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}

		for resp.ConfirmationRequired {
			options := optionsFromContext(resp.ConfirmationContext)
			choice, err := promptConfirmation(resp.Response, options)
			if err != nil {
				fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
				break
			}
			resp, err = client.confirm(ctx, choice)
			if err != nil {
				fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
				break
			}
		}

		fmt.Println(renderReply(resp, 80))
	}
}
