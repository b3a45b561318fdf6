package main

import (
	"encoding/json"
	"fmt"

	"github.com/mbellec/scriptforge"
	"github.com/mbellec/scriptforge/pkg/client"
)

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// toRow reshapes a catalog entry for display. The catalog serializes
// entries keyed by name, so Entry itself carries no name field.
func toRow(e scriptforge.Entry) client.ScriptInfo {
	return client.ScriptInfo{
		Name:        e.Name,
		Path:        e.Path,
		Kind:        string(e.Kind),
		Description: e.Description,
		Created:     e.Created,
	}
}

func toRows(entries []scriptforge.Entry) []client.ScriptInfo {
	rows := make([]client.ScriptInfo, len(entries))
	for i, e := range entries {
		rows[i] = toRow(e)
	}
	return rows
}
