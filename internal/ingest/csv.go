// Package ingest loads the Pokédex dataset into the record store and
// backfills embeddings into the vector index.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/knoguchi/pokedex/internal/repository"
)

// requiredColumns are the CSV header fields the loader depends on.
var requiredColumns = []string{
	"id", "name", "height", "weight", "hp", "attack", "defense",
	"s_attack", "s_defense", "speed", "type", "evo_set", "info",
}

// ReadPokedexCSV parses the pokedex CSV export. Columns are located by
// header name so column order in the export does not matter. The type column
// arrives as a Postgres-style set literal ("{Grass,Poison}") and is stored
// with the braces stripped.
func ReadPokedexCSV(r io.Reader) ([]*repository.Pokemon, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", name)
		}
	}

	var records []*repository.Pokemon
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++

		p, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, p)
	}

	return records, nil
}

func parseRow(row []string, cols map[string]int) (*repository.Pokemon, error) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	num := func(name string) (int, error) {
		raw := field(name)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", name, raw)
		}
		return n, nil
	}

	id, err := num("id")
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("invalid id %q", field("id"))
	}

	p := &repository.Pokemon{
		ID:   id,
		Name: field("name"),
		Type: strings.Trim(field("type"), "{}"),
		Info: field("info"),
	}

	for name, dst := range map[string]*int{
		"height":    &p.Height,
		"weight":    &p.Weight,
		"hp":        &p.HP,
		"attack":    &p.Attack,
		"defense":   &p.Defense,
		"s_attack":  &p.SpAttack,
		"s_defense": &p.SpDefense,
		"speed":     &p.Speed,
		"evo_set":   &p.EvoSet,
	} {
		n, err := num(name)
		if err != nil {
			return nil, err
		}
		*dst = n
	}

	return p, nil
}
