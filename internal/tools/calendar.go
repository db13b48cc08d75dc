package tools

import (
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"hermes/internal/calendar"
)

// Definition describes a tool's metadata for registration and documentation.
type Definition struct {
	Name        string
	Description string
	Category    string
}

// toolDefinitions enumerates the read-only macro data tools.
var toolDefinitions = []Definition{
	{Name: "get_economic_calendar", Description: "Upcoming economic calendar events across providers", Category: "macro"},
	{Name: "get_economic_series", Description: "Time-series observations for economic indicators", Category: "macro"},
}

// Definitions exposes a copy of all tool definitions.
func Definitions() []Definition {
	defs := make([]Definition, len(toolDefinitions))
	copy(defs, toolDefinitions)
	return defs
}

// NewEconomicCalendarTool exposes the calendar action of the dispatcher.
// The handler never returns an error: failures come back as structured
// payloads the agent can branch on.
func NewEconomicCalendarTool(svc *calendar.Service) tool.Tool {
	t, _ := functiontool.New(
		functiontool.Config{
			Name:        "get_economic_calendar",
			Description: "Upcoming economic calendar events across providers",
		},
		func(ctx tool.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return svc.Execute(ctx, withAction(args, calendar.ActionCalendar)), nil
		})
	return t
}

// NewEconomicSeriesTool exposes the series action of the dispatcher.
func NewEconomicSeriesTool(svc *calendar.Service) tool.Tool {
	t, _ := functiontool.New(
		functiontool.Config{
			Name:        "get_economic_series",
			Description: "Time-series observations for economic indicators",
		},
		func(ctx tool.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return svc.Execute(ctx, withAction(args, calendar.ActionSeries)), nil
		})
	return t
}

// RegisterAll wires every calendar tool into the registry.
func RegisterAll(registry *Registry, svc *calendar.Service) {
	registry.Register("get_economic_calendar", NewEconomicCalendarTool(svc))
	registry.Register("get_economic_series", NewEconomicSeriesTool(svc))
}

// withAction pins the action argument without mutating the caller's map.
func withAction(args map[string]interface{}, action string) map[string]interface{} {
	merged := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		merged[k] = v
	}
	merged["action"] = action
	return merged
}
