package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/dtroode/vkn-server/internal/model"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

var subjects = map[model.EmailKind]string{
	model.EmailVerify:        "VKN verification email",
	model.EmailResetPassword: "VKN reset password email",
}

// TemplateData is passed to every email template.
type TemplateData struct {
	Username string
	Link     string
	Token    string
}

// Templates renders email bodies per EmailKind.
type Templates struct {
	mu    sync.RWMutex
	byKey map[model.EmailKind]*template.Template
}

func templateFile(kind model.EmailKind) string {
	return string(kind) + ".html"
}

// NewTemplates parses the built-in templates.
func NewTemplates() (*Templates, error) {
	t := &Templates{byKey: make(map[model.EmailKind]*template.Template, len(subjects))}
	for kind := range subjects {
		tmpl, err := template.ParseFS(defaultTemplates, "templates/"+templateFile(kind))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", kind, err)
		}
		t.byKey[kind] = tmpl
	}
	return t, nil
}

// LoadOverrides replaces built-in templates with objects of the same name found in storage.
// It returns the kinds that were overridden.
func (t *Templates) LoadOverrides(ctx context.Context, storage model.Storage) ([]model.EmailKind, error) {
	var loaded []model.EmailKind
	for kind := range subjects {
		key := templateFile(kind)
		ok, err := storage.Exists(ctx, key)
		if err != nil {
			return loaded, fmt.Errorf("failed to check %s override: %w", key, err)
		}
		if !ok {
			continue
		}

		tmpl, err := readTemplate(ctx, storage, key)
		if err != nil {
			return loaded, err
		}

		t.mu.Lock()
		t.byKey[kind] = tmpl
		t.mu.Unlock()
		loaded = append(loaded, kind)
	}
	return loaded, nil
}

func readTemplate(ctx context.Context, storage model.Storage, key string) (*template.Template, error) {
	rc, err := storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	tmpl, err := template.New(key).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return tmpl, nil
}

// Render returns the subject and HTML body for kind.
func (t *Templates) Render(kind model.EmailKind, data TemplateData) (string, string, error) {
	t.mu.RLock()
	tmpl, ok := t.byKey[kind]
	t.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", kind, err)
	}
	return subjects[kind], buf.String(), nil
}
