package classify

import "strings"

// Kind enumerates the supported automation script categories.
type Kind string

const (
	KindHotkey      Kind = "hotkey"
	KindTextMacro   Kind = "text_macro"
	KindWindow      Kind = "window_automation"
	KindTranslation Kind = "translation_tool"
	KindCustom      Kind = "custom"
)

// Result is the outcome of classifying one free-text command.
type Result struct {
	Kind   Kind
	Params map[string]string
}

// rule recognizes one command shape and builds its parameters.
type rule struct {
	kind  Kind
	build func(text string) (map[string]string, bool)
}

// Classifier maps a free-text command to a script kind plus parameters
// using an ordered rule list; the first matching rule wins. Input that
// matches no rule degrades to a custom script whose body is the input
// itself, so classification never fails.
type Classifier struct {
	rules []rule
}

func New() *Classifier {
	return &Classifier{rules: []rule{
		{KindHotkey, buildHotkey},
		{KindTextMacro, buildTextMacro},
		{KindWindow, buildWindow},
		{KindTranslation, buildTranslation},
		{KindCustom, buildNamedCustom},
	}}
}

func (c *Classifier) Classify(text string) Result {
	trimmed := strings.TrimSpace(text)
	for _, r := range c.rules {
		if params, ok := r.build(trimmed); ok {
			return Result{Kind: r.kind, Params: params}
		}
	}
	return Result{Kind: KindCustom, Params: map[string]string{"script_content": text}}
}

// splitShape matches the "<keyword> <head><sep><tail>" command shapes.
// The keyword comparison is case-insensitive; head and tail keep their
// original spelling.
func splitShape(text, keyword, sep string) (head, tail string, ok bool) {
	if !strings.HasPrefix(strings.ToLower(text), keyword+" ") {
		return "", "", false
	}
	rest := text[len(keyword)+1:]
	i := strings.Index(rest, sep)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+len(sep):]), true
}

func buildHotkey(text string) (map[string]string, bool) {
	combo, action, ok := splitShape(text, "hotkey", ":")
	if !ok || combo == "" {
		return nil, false
	}
	return map[string]string{
		"hotkey": NormalizeHotkey(combo),
		"action": action,
	}, true
}

func buildTextMacro(text string) (map[string]string, bool) {
	trigger, expansion, ok := splitShape(text, "text macro", "::")
	if !ok || trigger == "" {
		return nil, false
	}
	return map[string]string{
		"trigger":   trigger,
		"expansion": expansion,
	}, true
}

func buildWindow(text string) (map[string]string, bool) {
	title, actions, ok := splitShape(text, "window", ":")
	if !ok || title == "" {
		return nil, false
	}
	return map[string]string{
		"window_title": title,
		"actions":      RenderWindowActions(actions),
	}, true
}

func buildTranslation(text string) (map[string]string, bool) {
	combo, spec, ok := splitShape(text, "translation", ":")
	if !ok || combo == "" {
		return nil, false
	}
	params := parseTranslationSpec(spec)
	params["hotkey"] = NormalizeHotkey(combo)
	return params, true
}

func buildNamedCustom(text string) (map[string]string, bool) {
	name, body, ok := splitShape(text, "custom", ":")
	if !ok || name == "" || body == "" {
		return nil, false
	}
	return map[string]string{
		"name":           name,
		"script_content": body,
	}, true
}
