package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

// promptConfirmation renders the confirmation context's prompt and
// option set (oldest/latest/all/cancel, per spec §4.4) as an
// interactive picker, returning the chosen option's literal text to
// send back to /chat/confirm.
func promptConfirmation(message string, options []string) (string, error) {
	if len(options) == 0 {
		options = []string{"cancel"}
	}
	fmt.Println(message)

	sel := promptui.Select{
		Label: "Choose",
		Items: options,
	}
	_, choice, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("confirmation prompt: %w", err)
	}
	return choice, nil
}

func optionsFromContext(ctx map[string]any) []string {
	raw, ok := ctx["options"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
