package answer

import (
	"fmt"
	"strings"

	"github.com/knoguchi/pokedex/internal/repository"
	"github.com/knoguchi/pokedex/internal/search"
)

// SystemPrompt instructs the model to answer strictly from the retrieved
// context and to keep the retrieval ranking intact.
const SystemPrompt = `You are a RAG assistant for a Pokédex.
Use only the Pokémon provided in the context. Do NOT invent any Pokémon, attributes, or lore.
All retrieved Pokémon must be included in the top-N list in the exact order they are provided in the context (do not change the ranking).
After listing all Pokémon, provide a clear, coherent, and concise descriptive summary synthesizing information from all listed Pokémon.
- Include only attributes relevant to the question.
- Compare or group Pokémon where appropriate.
- Avoid listing every attribute in the summary.

If the answer cannot be determined from the context, respond exactly:
"The answer is not available in the given context."`

// BuildPrompt assembles the full generation prompt: the query, the retrieved
// records in rank order, and the listing/summary instructions.
func BuildPrompt(query string, results []search.ScoredResult, limit int) string {
	var context string
	if len(results) == 0 {
		context = "No Pokémon found in the database."
	} else {
		entries := make([]string, len(results))
		for i, res := range results {
			entries[i] = formatRecord(res.Record, i+1)
		}
		context = strings.Join(entries, "\n\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "The user searched for Pokémon with the query:\nQuery: %s\n", query)
	fmt.Fprintf(&sb, "The user requested %d Pokémon results.\n", limit)
	fmt.Fprintf(&sb, "Number of Pokémon retrieved: %d.\n\n", len(results))
	sb.WriteString("Below are all retrieved Pokémon, listed in the exact order provided by the retrieval system (do not change the ranking):\n\n")
	sb.WriteString(context)
	sb.WriteString("\n\n")
	sb.WriteString(`Instruction:
- First, present all retrieved Pokémon exactly in the order they appear above.
- Then, provide a descriptive, coherent summary synthesizing information from all listed Pokémon.
- Include only attributes relevant to answering the query.
- Compare or group Pokémon if appropriate.
- Do not invent Pokémon or details not present in the context.
- If the answer cannot be determined from the context, respond exactly:
"The answer is not available in the given context."
`)

	return sb.String()
}

// formatRecord renders one record for the LLM context. position is the
// 1-based retrieval rank.
func formatRecord(p repository.Pokemon, position int) string {
	return fmt.Sprintf(`%d. %s
  id: %d
  height: %d
  weight: %d
  hp: %d
  attack: %d
  defense: %d
  s_attack: %d
  s_defense: %d
  speed: %d
  type: %s
  evo_set: %d
  info: %s`,
		position, p.Name, p.ID, p.Height, p.Weight, p.HP, p.Attack, p.Defense,
		p.SpAttack, p.SpDefense, p.Speed, p.Type, p.EvoSet, p.Info)
}
