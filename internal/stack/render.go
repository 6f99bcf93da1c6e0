package stack

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// RenderData feeds the compose template. Secrets never appear here; the
// rendered document references them as ${VAR} and compose reads .env.
type RenderData struct {
	Project string
	Domain  string
	Network string
	DataDir string
	PHPIni  string
}

func renderTemplate(name string, data RenderData) ([]byte, error) {
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Renderer writes the service descriptor and the Traefik configuration.
type Renderer struct {
	Layout  Layout
	Network Network
	Log     *slog.Logger
}

func (r *Renderer) Render(rec envfile.Record) error {
	domain := rec.Get(envfile.Domain)
	if domain == "" {
		return fmt.Errorf("%s is not set in %s", envfile.Domain, r.Layout.EnvFile)
	}

	dataDir, err := filepath.Abs(r.Layout.DataDir)
	if err != nil {
		return err
	}
	phpIni, err := filepath.Abs(r.Layout.PHPIniFile())
	if err != nil {
		return err
	}
	data := RenderData{
		Project: r.Layout.Project,
		Domain:  domain,
		Network: r.Network.Name,
		DataDir: dataDir,
		PHPIni:  phpIni,
	}
	compose, err := r.compose(data)
	if err != nil {
		return err
	}
	if err := writeFile(r.Layout.ComposeFile(), compose, 0o640); err != nil {
		return err
	}

	if err := ensureFile(r.Layout.PHPIniFile(), 0o644); err != nil {
		return err
	}

	mw, err := Middlewares(rec.Get(envfile.DashboardUser), rec.Get(envfile.DashboardPassword))
	if err != nil {
		return err
	}
	docs := []struct {
		path string
		doc  any
	}{
		{filepath.Join(r.Layout.TraefikDir(), "traefik.yml"), StaticConfig(r.Network.Name, rec.Get(envfile.ACMEEmail))},
		{filepath.Join(r.Layout.DynamicDir(), "middlewares.yml"), mw},
		{filepath.Join(r.Layout.DynamicDir(), "tls.yml"), TLSConfig()},
	}
	for _, d := range docs {
		out, err := yaml.Marshal(d.doc)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", d.path, err)
		}
		if err := writeFile(d.path, out, 0o640); err != nil {
			return err
		}
	}

	r.Log.Info("rendered stack", "compose", r.Layout.ComposeFile())
	return nil
}

// compose renders the embedded template. An operator override is left to
// compose's own -f merge, which understands list and map forms; here it is
// only parsed so a broken override fails before anything starts.
func (r *Renderer) compose(data RenderData) ([]byte, error) {
	rendered, err := renderTemplate("compose.yml.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render compose: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(rendered, &doc); err != nil {
		return nil, fmt.Errorf("parse compose: %w", err)
	}

	override, err := os.ReadFile(r.Layout.OverrideFile())
	switch {
	case err == nil:
		var overlay map[string]any
		if err := yaml.Unmarshal(override, &overlay); err != nil {
			return nil, fmt.Errorf("parse %s: %w", r.Layout.OverrideFile(), err)
		}
		r.Log.Info("using compose override", "file", r.Layout.OverrideFile())
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	return rendered, nil
}
