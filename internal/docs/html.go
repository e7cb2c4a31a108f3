package docs

import (
	"bytes"
	"fmt"
	"html/template"
)

// viewerTemplate renders a minimal self-contained API docs page with the
// OpenAPI document embedded, so no external assets are needed.
var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #0f1115; color: #e6e8eb; }
    header { padding: 1.5rem 2rem; border-bottom: 1px solid #2a2e36; }
    header h1 { margin: 0; font-size: 1.25rem; }
    header p { margin: 0.25rem 0 0; color: #9aa1ab; font-size: 0.875rem; }
    main { padding: 1.5rem 2rem; }
    pre { background: #161920; border: 1px solid #2a2e36; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.8125rem; line-height: 1.5; }
    a { color: #7ab8ff; }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p>OpenAPI {{.OpenAPIVersion}} &middot; raw document at <a href="openapi.json">openapi.json</a></p>
  </header>
  <main>
    <pre>{{.Spec}}</pre>
  </main>
</body>
</html>
`))

// HTML renders the docs viewer page embedding the OpenAPI document.
func HTML(cfg Config) ([]byte, error) {
	spec, err := JSON(cfg)
	if err != nil {
		return nil, err
	}

	title := cfg.Title
	if title == "" {
		title = "GlassFeed Health API"
	}

	var buf bytes.Buffer
	err = viewerTemplate.Execute(&buf, struct {
		Title          string
		OpenAPIVersion string
		Spec           string
	}{
		Title:          title,
		OpenAPIVersion: "3.0.0",
		Spec:           string(spec),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering docs page: %w", err)
	}
	return buf.Bytes(), nil
}
