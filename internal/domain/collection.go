package domain

import (
	"encoding/json"
	"strings"
)

// Collection es la lista guardada de una cuenta. Los items son JSON opaco.
type Collection struct {
	Owner string            `json:"owner"`
	Items []json.RawMessage `json:"items"`
}

// ItemID extrae el campo "id" de un item como texto comparable.
// Devuelve false si el item no es un objeto o no trae id.
func ItemID(item json.RawMessage) (string, bool) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(item, &probe); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(string(probe.ID))
	if raw == "" || raw == "null" {
		return "", false
	}
	// "1" y 1 identifican al mismo track.
	var s string
	if err := json.Unmarshal(probe.ID, &s); err == nil {
		return s, s != ""
	}
	return raw, true
}
