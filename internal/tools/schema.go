package tools

import "github.com/repo-auditor/repo-auditor/internal/llm"

// Schema describes a tool for JSON schema/tool-calling.
type Schema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  []SchemaField `json:"parameters"`
}

// SchemaField describes a single parameter.
type SchemaField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// JSONSchema renders the parameters as a JSON-schema object.
func (s Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Parameters))
	required := make([]string, 0, len(s.Parameters))
	for _, f := range s.Parameters {
		prop := map[string]interface{}{"type": f.Type}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != "" {
			prop["default"] = f.Default
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var catalog = []Schema{
	{
		Name:        NameDownloadRepo,
		Description: "Download a GitHub repository snapshot as a zip archive and extract it locally. Returns the extraction path.",
		Parameters: []SchemaField{
			{Name: "repo_url", Type: "string", Description: "Repository URL, e.g. https://github.com/owner/repo", Required: true},
			{Name: "ref", Type: "string", Description: "Branch, tag or commit to download", Default: "main"},
		},
	},
	{
		Name:        NameScanEnvs,
		Description: "Scan a local directory tree for .env files and report keys that look like secrets, with values redacted.",
		Parameters: []SchemaField{
			{Name: "root_path", Type: "string", Description: "Directory to scan, typically the path returned by download_repo", Required: true},
		},
	},
}

// Schemas lists the available tools in catalog order.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(catalog))
	copy(out, catalog)
	return out
}

// Definitions returns the tool catalog in the shape the model boundary expects.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(catalog))
	for _, s := range catalog {
		defs = append(defs, llm.ToolDefinition{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.JSONSchema(),
		})
	}
	return defs
}
