package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/mbellec/scriptforge/internal/catalog"
	"github.com/mbellec/scriptforge/internal/classify"
	"github.com/mbellec/scriptforge/internal/metrics"
	"github.com/mbellec/scriptforge/internal/template"
)

// Words whose presence in a custom script body gets the generation refused.
// Inherited from the assistant's command filter.
var blockedWords = []string{"shutdown", "del", "rd", "rmdir", "format", "erase", "remove", "rm"}

// ErrDangerousContent is returned when a custom script body contains a
// blocked command word.
var ErrDangerousContent = errors.New("contenu de script refusé pour des raisons de sécurité")

const (
	timestampLayout = "20060102150405"
	dateLayout      = "02/01/2006 15:04:05"
	maxSlugLen      = 40
)

// Generator turns free-text commands into catalogued script files.
type Generator struct {
	dir        string
	templates  *template.Library
	catalog    *catalog.Catalog
	classifier *classify.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

func New(dir string, lib *template.Library, cat *catalog.Catalog, cls *classify.Classifier, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		dir:        dir,
		templates:  lib,
		catalog:    cat,
		classifier: cls,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate classifies commandText, renders the matching template and writes
// the script file, then registers and persists the catalog entry. When
// description is empty the command text doubles as description. No file is
// created when rendering fails.
func (g *Generator) Generate(commandText, description string) (catalog.Entry, error) {
	res := g.classifier.Classify(commandText)
	metrics.IncClassified(string(res.Kind))

	if description == "" {
		description = strings.TrimSpace(commandText)
	}

	if res.Kind == classify.KindCustom {
		if word, bad := dangerousWord(res.Params["script_content"]); bad {
			g.logger.Warn("custom script body refused", "word", word)
			return catalog.Entry{}, fmt.Errorf("%w (mot bloqué: %s)", ErrDangerousContent, word)
		}
	}

	created := g.now()
	params := map[string]string{
		"description": description,
		"date":        created.Format(dateLayout),
	}
	for k, v := range res.Params {
		params[k] = v
	}

	body, err := template.Render(g.templates.Get(res.Kind), params)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("rendu du modèle %s: %w", res.Kind, err)
	}

	name, path := g.uniqueName(description, created)
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return catalog.Entry{}, err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return catalog.Entry{}, fmt.Errorf("écriture du script: %w", err)
	}

	entry := catalog.Entry{
		Name:        name,
		Path:        path,
		Kind:        res.Kind,
		Description: description,
		Created:     created.UTC(),
		Params:      res.Params,
	}
	g.catalog.Register(entry)
	if err := g.catalog.Save(); err != nil {
		// The script file exists and works; a catalog write failure must
		// not look like a failed generation.
		g.logger.Warn("catalog save failed after generation", "name", name, "error", err)
	}

	metrics.IncGenerated(string(res.Kind))
	g.logger.Info("script generated", "name", name, "kind", res.Kind, "path", path)
	return entry, nil
}

// uniqueName builds <slug>_<timestamp> and resolves same-second collisions
// with a numeric suffix.
func (g *Generator) uniqueName(description string, created time.Time) (name, path string) {
	base := Slug(description) + "_" + created.Format(timestampLayout)
	name = base
	path = filepath.Join(g.dir, name+".ahk")
	for i := 2; ; i++ {
		if _, err := os.Stat(path); err != nil {
			return name, path
		}
		name = fmt.Sprintf("%s_%d", base, i)
		path = filepath.Join(g.dir, name+".ahk")
	}
}

// Slug lowercases text and keeps letters and digits, joining runs of
// anything else with single underscores.
func Slug(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	var b strings.Builder
	lastUnderscore := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if runes := []rune(s); len(runes) > maxSlugLen {
		s = strings.Trim(string(runes[:maxSlugLen]), "_")
	}
	if s == "" {
		s = "script"
	}
	return s
}

func dangerousWord(content string) (string, bool) {
	for _, w := range fieldsLower(content) {
		for _, blocked := range blockedWords {
			if w == blocked {
				return blocked, true
			}
		}
	}
	return "", false
}

// fieldsLower splits on anything that is not a letter or digit.
func fieldsLower(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
