// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/tatooine/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a schema file. JSON files are accepted as well.
func LoadFromFile(filename string) (*SchemaFile, error) {
	if filename == "" {
		return nil, fmt.Errorf("schema filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromReader loads a schema file from an io.Reader
func LoadFromReader(reader io.Reader) (*SchemaFile, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses a schema file after expanding environment variables.
// The result is not validated.
func LoadFromBytes(data []byte) (*SchemaFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("schema data cannot be empty")
	}
	return DecodeSchemas([]byte(expandEnvironmentVariables(string(data))))
}

// DecodeSchemas parses YAML or JSON schemas and applies defaults without
// touching environment variables, for schemas received from clients. The
// document is either a mapping with a schemas key or a bare list of schemas.
func DecodeSchemas(data []byte) (*SchemaFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("schema data cannot be empty")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	var file SchemaFile
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&file.Schemas); err != nil {
			return nil, fmt.Errorf("failed to decode schemas: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode schemas: %w", err)
		}
	default:
		return nil, fmt.Errorf("schema file must be a list of schemas or a mapping with a schemas key")
	}

	applyDefaults(&file)
	return &file, nil
}

// SaveToFile writes a schema file as YAML
func SaveToFile(file *SchemaFile, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	var buf bytes.Buffer
	if err := SaveToWriter(file, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	return nil
}

// SaveToWriter writes a schema file as YAML to writer
func SaveToWriter(file *SchemaFile, writer io.Writer) error {
	if file == nil {
		return fmt.Errorf("schema file cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("failed to marshal schemas to YAML: %w", err)
	}
	return encoder.Close()
}

// expandEnvironmentVariables substitutes ${VAR} and $VAR references.
// ${VAR:-default} falls back to default when VAR is unset or empty.
func expandEnvironmentVariables(content string) string {
	return os.Expand(content, func(name string) string {
		if key, fallback, ok := strings.Cut(name, ":-"); ok {
			if value := os.Getenv(key); value != "" {
				return value
			}
			return fallback
		}
		return os.Getenv(name)
	})
}

// applyDefaults fills the defaults every built-in engine relies on
func applyDefaults(file *SchemaFile) {
	for _, schema := range file.Schemas {
		if schema == nil {
			continue
		}

		schema.Engine = strings.TrimSpace(schema.Engine)

		if !types.IsBuiltinEngine(schema.Engine) {
			continue
		}

		req := &schema.Options.Request
		if req.Method == "" {
			req.Method = "GET"
		}
		req.Method = strings.ToUpper(req.Method)

		if schema.Engine == types.EngineSPA && req.Launch.Headless == nil {
			req.Launch.Headless = types.Bool(true)
		}
	}
}

// GenerateTemplate returns an example schema file for the given engine.
// Unknown kinds fall back to the markup template.
func GenerateTemplate(kind string) SchemaFile {
	switch strings.ToLower(kind) {
	case types.EngineJSON:
		return generateJSONTemplate()
	case types.EngineSPA:
		return generateSPATemplate()
	default:
		return generateMarkupTemplate()
	}
}

// TemplateKinds lists the kinds accepted by GenerateTemplate
func TemplateKinds() []string {
	return types.BuiltinEngines()
}

func generateJSONTemplate() SchemaFile {
	return SchemaFile{Schemas: []*types.Schema{{
		Engine: types.EngineJSON,
		Options: types.Options{
			Request: types.RequestOptions{
				URL:     "https://api.example.com/v1/articles",
				Method:  "GET",
				Headers: map[string]string{"Accept": "application/json"},
				Params:  map[string]string{"page": "1"},
				Timeout: "15s",
			},
			Limit: 20,
		},
		Selectors: types.Selectors{
			types.RootKey: {Value: "data.items"},
			"title":       {Value: "title"},
			"link":        {Value: "slug", Prefix: "https://example.com/articles/"},
			"author":      {Value: "authors[0].name"},
		},
		Metadata: map[string]interface{}{"source": "example-api"},
	}}}
}

func generateMarkupTemplate() SchemaFile {
	return SchemaFile{Schemas: []*types.Schema{{
		Engine: types.EngineMarkup,
		Options: types.Options{
			Request: types.RequestOptions{
				URL:     "https://news.example.com",
				Method:  "GET",
				Timeout: "30s",
			},
			Limit: 10,
		},
		Selectors: types.Selectors{
			types.RootKey: {Value: "article.story"},
			"title":       {Value: "h2"},
			"link":        {Value: "a", Attribute: "href", Prefix: "https://news.example.com"},
			"summary":     {Value: "p.summary"},
		},
		Metadata: map[string]interface{}{"source": "example-news"},
	}}}
}

func generateSPATemplate() SchemaFile {
	return SchemaFile{Schemas: []*types.Schema{{
		Engine: types.EngineSPA,
		Options: types.Options{
			Request: types.RequestOptions{
				URL: "https://app.example.com/feed",
				Launch: types.LaunchOptions{
					Headless:     types.Bool(true),
					WindowWidth:  1280,
					WindowHeight: 800,
				},
			},
			Limit: 10,
		},
		Selectors: types.Selectors{
			types.RootKey: {Value: "#feed .card"},
			"title":       {Value: ".card-title"},
			"image":       {Value: "img", Attribute: "src"},
		},
		Metadata: map[string]interface{}{"source": "example-app"},
	}}}
}
