package lsp

import (
	"fmt"
	"maps"

	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/luals/config"
)

const settingsSection = "luals"

// Setting keys
const (
	strictSetting  = "strict"
	integerSetting = "integer"
	unusedSetting  = "unused"
)

// settings holds the free-form settings sent by the client, layered over the configured defaults.
type settings map[string]any

func newSettings(defaults config.Analysis) settings {
	return settings{
		strictSetting:  defaults.Strict,
		integerSetting: defaults.Integer,
		unusedSetting:  defaults.Unused,
	}
}

// Merge overwrites the keys of s with those of v. v can either be the settings object itself or an object with the
// settings under a "luals" key. A nil v is ignored.
func (s settings) Merge(v any) error {
	if v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("settings must be an object, got %T", v)
	}
	if section, ok := obj[settingsSection]; ok {
		sectionObj, ok := section.(map[string]any)
		if !ok {
			return fmt.Errorf("%s settings must be an object, got %T", settingsSection, section)
		}
		obj = sectionObj
	}
	maps.Copy(s, obj)
	return nil
}

// Bool returns the value of the boolean setting with the given key, or def if it's not set or isn't a boolean.
func (s settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#workspace_didChangeConfiguration
func (h *Handler) workspaceDidChangeConfiguration(params *protocol.DidChangeConfigurationParams) error {
	if err := h.settings.Merge(params.Settings); err != nil {
		return fmt.Errorf("workspace/didChangeConfiguration: %w", err)
	}
	for _, docURI := range h.sortedDocURIs() {
		h.typecheck(docURI)
	}
	return nil
}
