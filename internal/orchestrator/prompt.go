package orchestrator

import (
	"fmt"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/registry"
)

const basePrompt = `You are AppForge, an AI pair-builder that edits a browser-hosted web project through tools.
Work directly on the project files; never output code fences for the user to copy.
Always pass complete file content to create_file and update_file - no diffs or placeholders.
Read a file before rewriting it unless you just created it.`

const planModePrompt = `Before touching any file, reply with a short numbered plan of the changes you intend to make, then carry it out with tool calls.`

// BuildSystemPrompt assembles the system turn for one run: base behavior,
// the tool summary, the current project layout, and the plan-mode switch.
func BuildSystemPrompt(planMode bool, files []domain.ProjectFile, mentioned []string) domain.ConversationTurn {
	var builder strings.Builder
	builder.WriteString(basePrompt)

	builder.WriteString("\n\nAvailable tools:\n")
	for _, def := range registry.Definitions() {
		fmt.Fprintf(&builder, "- %s: %s\n", def.Name, def.Description)
	}

	if len(files) > 0 {
		builder.WriteString("\nProject files:\n")
		for _, file := range files {
			fmt.Fprintf(&builder, "- %s (%s, %d bytes)\n", file.Path, file.Language, file.Size)
		}
	} else {
		builder.WriteString("\nThe project has no files yet.\n")
	}

	if len(mentioned) > 0 {
		builder.WriteString("\nThe user referenced these files explicitly: ")
		builder.WriteString(strings.Join(mentioned, ", "))
		builder.WriteString("\n")
	}

	if planMode {
		builder.WriteString("\n")
		builder.WriteString(planModePrompt)
		builder.WriteString("\n")
	}

	return domain.ConversationTurn{
		Role:    domain.RoleSystem,
		Content: builder.String(),
	}
}
