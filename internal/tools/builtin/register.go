package builtin

import (
	"pantry/internal/config"
	"pantry/internal/planner"
	"pantry/internal/toolregistry"
)

// inventoryTools and menuTools are the catalogue of tool names that
// route through the generic HTTPTransport against a configured
// backend, per spec §4.1's "family of tool names routed to a
// transport" model.
var (
	inventoryTools = []toolregistry.ToolDefinition{
		{Name: "inventory_add", Description: "Add an item to the pantry inventory."},
		{Name: "inventory_list", Description: "List current pantry inventory."},
		{Name: "inventory_update_quantity", Description: "Update the quantity of an existing inventory item."},
		{Name: "inventory_delete_by_id", Description: "Delete a specific inventory record by its id."},
		{Name: "inventory_delete_by_name", Description: "Delete inventory record(s) matching a name."},
	}
	menuTools = []toolregistry.ToolDefinition{
		{Name: "menu_llm", Description: "Propose a menu from an LLM-authored suggestion given current inventory."},
		{Name: "menu_retrieval", Description: "Propose a menu retrieved from a recipe database matching current inventory."},
	}
	recipeTool = toolregistry.ToolDefinition{Name: "recipe_lookup", Description: "Resolve recipe titles to source URLs."}
	chatTool   = toolregistry.ToolDefinition{Name: "llm_chat", Description: "Free-form conversational reply with no inventory side effects."}
)

// RegisterAll builds and registers every pantry-domain tool against
// cfg's transport locations, returning the populated registry ready
// for the planner and executor to share.
func RegisterAll(cfg *config.Config, llm planner.LLMClient) (*toolregistry.Registry, error) {
	registry := toolregistry.NewRegistry(cfg.DefaultTool)
	registry.SetProcessCredential(cfg.ProcessCredential)

	byName := make(map[string]config.ToolTransport, len(cfg.ToolTransports))
	for _, tr := range cfg.ToolTransports {
		byName[tr.Name] = tr
	}

	inventoryTransport := NewHTTPTransport(byName["inventory"].BaseURL, byName["inventory"].Timeout)
	for _, def := range inventoryTools {
		if err := registry.Register(&toolregistry.Route{Definition: def, Transport: inventoryTransport}); err != nil {
			return nil, err
		}
	}

	menuTransport := NewHTTPTransport(byName["menu"].BaseURL, byName["menu"].Timeout)
	for _, def := range menuTools {
		if err := registry.Register(&toolregistry.Route{Definition: def, Transport: menuTransport}); err != nil {
			return nil, err
		}
	}

	recipeTransport := NewRecipeLookupTransport(byName["recipe_search"].BaseURL, byName["recipe_search"].Timeout)
	if err := registry.Register(&toolregistry.Route{Definition: recipeTool, Transport: recipeTransport}); err != nil {
		return nil, err
	}

	chatTransport := NewLLMChatTransport(llm)
	if err := registry.Register(&toolregistry.Route{Definition: chatTool, Transport: chatTransport}); err != nil {
		return nil, err
	}

	return registry, nil
}
