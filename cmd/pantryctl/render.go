package main

import (
	"fmt"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/glamour"
)

// renderReply renders the composer's reply as markdown. Menu proposals
// (S7's side-by-side case) are appended as a comparison table before
// rendering, so recipe links from both sources stay visually paired.
func renderReply(resp *chatResponse, width int) string {
	body := resp.Response
	if len(resp.Menus) >= 2 {
		body += "\n\n" + menuTable(resp.Menus)
	}

	out, err := glamour.Render(body, "dark")
	if err != nil {
		return string(markdown.Render(body, width, 2))
	}
	return out
}

func menuTable(menus []map[string]any) string {
	var sb strings.Builder
	sb.WriteString("| source | title | recipe urls |\n|---|---|---|\n")
	for _, m := range menus {
		source, _ := m["source"].(string)
		title, _ := m["title"].(string)
		var urls []string
		if raw, ok := m["recipe_urls"].([]any); ok {
			for _, u := range raw {
				if s, ok := u.(string); ok {
					urls = append(urls, s)
				}
			}
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", source, title, strings.Join(urls, ", "))
	}
	return sb.String()
}
