package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/mbellec/scriptforge/internal/classify"
)

const hotkeyBody = `; {{.description}}
; Généré le {{.date}}
#NoEnv
SendMode Input

{{.hotkey}}::
Run, {{.action}}
return
`

const textMacroBody = `; {{.description}}
; Généré le {{.date}}
#NoEnv
SendMode Input

::{{.trigger}}::{{.expansion}}
`

const windowBody = `; {{.description}}
; Généré le {{.date}}
#NoEnv
SendMode Input

^!w::
IfWinExist, {{.window_title}}
{
WinActivate
{{.actions}}
}
return
`

const translationBody = `; {{.description}}
; Généré le {{.date}}
#NoEnv
SendMode Input

{{.hotkey}}::
Send, ^c
Sleep, 150
Run, {{.service_url}}
return
`

const customBody = `; {{.description}}
; Généré le {{.date}}
#NoEnv
SendMode Input

{{.script_content}}
`

var builtin = map[classify.Kind]string{
	classify.KindHotkey:      hotkeyBody,
	classify.KindTextMacro:   textMacroBody,
	classify.KindWindow:      windowBody,
	classify.KindTranslation: translationBody,
	classify.KindCustom:      customBody,
}

var ErrInvalidName = errors.New("invalid template name")

// Library serves the built-in script body for each kind and persists
// user templates under dir. Placeholder validation is deferred to
// Render; Get never fails.
type Library struct {
	dir string
}

// New returns a library persisting user templates under dir. An empty
// dir disables persistence (SaveCustom fails, LoadCustom misses).
func New(dir string) *Library {
	return &Library{dir: dir}
}

// Get returns the template body for kind. A user template saved under
// the kind's name overrides the built-in body; unknown kinds fall back
// to the generic custom body.
func (l *Library) Get(kind classify.Kind) string {
	if body, ok := l.LoadCustom(string(kind)); ok {
		return body
	}
	if body, ok := builtin[kind]; ok {
		return body
	}
	return customBody
}

// Kinds lists the kinds with a built-in template, in a fixed order.
func (l *Library) Kinds() []classify.Kind {
	return []classify.Kind{
		classify.KindHotkey,
		classify.KindTextMacro,
		classify.KindWindow,
		classify.KindTranslation,
		classify.KindCustom,
	}
}

// SaveCustom persists a user template under its name for later reuse.
func (l *Library) SaveCustom(name, content string) error {
	if l.dir == "" {
		return errors.New("template persistence disabled")
	}
	if !safeName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	path := filepath.Join(l.dir, name+".tmpl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write template %s: %w", name, err)
	}
	return nil
}

// LoadCustom retrieves a previously saved user template.
func (l *Library) LoadCustom(name string) (string, bool) {
	if l.dir == "" || !safeName(name) {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(l.dir, name+".tmpl"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Render fills body's placeholders from params. A placeholder with no
// matching parameter is an error so generation can abort before any
// file is written.
func Render(body string, params map[string]string) (string, error) {
	t, err := texttemplate.New("script").Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, params); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return b.String(), nil
}

func safeName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
