// Schema Generator
//
// Generates JSON Schema files for the pricing API request and response types
// so that rule authoring and order entry clients can validate payloads.
//
// Usage:
//
//	go run ./cmd/schema-gen [output-dir]
//
// Output (default directory: schemas):
//
//	pricing.json
//	rules.json
//	sessions.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/primecut/pricing-service/internal/handlers"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := "schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	groups := []SchemaGroup{
		{
			Name: "pricing",
			Types: []any{
				// Request types
				handlers.CalculateRequest{},
				handlers.LineItemInput{},
				handlers.CustomerInput{},
				// Response types
				handlers.PricingResult{},
				handlers.AppliedRule{},
				handlers.SkippedRule{},
			},
			Output: "pricing.json",
		},
		{
			Name: "rules",
			Types: []any{
				handlers.Rule{},
				handlers.ListRulesResponse{},
				handlers.RuleCheckResponse{},
				handlers.PreviewResponse{},
				handlers.PreviewRow{},
				handlers.CatalogValuesResponse{},
			},
			Output: "rules.json",
		},
		{
			Name: "sessions",
			Types: []any{
				handlers.ApplyRulesRequest{},
				handlers.LineItemPricingResponse{},
				handlers.AppliedRuleState{},
			},
			Output: "sessions.json",
		},
	}

	for _, group := range groups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}
}

// generateGroupSchema merges the definitions of every type in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{}

	definitions := make(map[string]any)
	for _, t := range group.Types {
		schema := reflector.Reflect(t)
		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://primecut.example/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
