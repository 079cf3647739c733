package toolregistry

import "strings"

// Family classifies a tool name by the deterministic prefix/suffix
// convention spec §4.1 describes: inventory-family names route to one
// transport, recipe-family to another, unknown names to the configured
// default.
func Family(toolName string) string {
	switch {
	case strings.HasPrefix(toolName, "inventory_"):
		return "inventory"
	case strings.HasPrefix(toolName, "recipe_"):
		return "recipe"
	case strings.HasPrefix(toolName, "menu_"):
		return "menu"
	case strings.HasPrefix(toolName, "search_"):
		return "search"
	case toolName == "llm_chat" || toolName == "conversational":
		return "llm"
	default:
		return "default"
	}
}

// IsMultiTargetTool reports whether a tool name is the plain
// update-by-name or delete-by-name kind that the Ambiguity Detector
// (C4) always requires confirmation for.
func IsMultiTargetTool(toolName string) bool {
	switch toolName {
	case "inventory_update_by_name", "inventory_delete_by_name":
		return true
	default:
		return false
	}
}

// FIFOVariant reports whether a tool name is an oldest/latest
// FIFO-sensitive variant, and which end it selects.
func FIFOVariant(toolName string) (isFIFO bool, variant string) {
	switch {
	case strings.HasSuffix(toolName, "_oldest"):
		return true, "oldest"
	case strings.HasSuffix(toolName, "_latest"):
		return true, "latest"
	default:
		return false, ""
	}
}

// BaseNameScopedAction strips a FIFO suffix, returning the verb the
// tool performs ("update" or "delete") for prompt generation.
func BaseNameScopedAction(toolName string) string {
	name := toolName
	name = strings.TrimSuffix(name, "_oldest")
	name = strings.TrimSuffix(name, "_latest")
	switch {
	case strings.Contains(name, "delete"):
		return "delete"
	case strings.Contains(name, "update"):
		return "update"
	default:
		return name
	}
}
