package classify

import "strings"

// Modifier words map to AutoHotkey modifier symbols. French spellings
// are accepted alongside English ones.
var modifierCodes = map[string]string{
	"ctrl":     "^",
	"control":  "^",
	"controle": "^",
	"contrôle": "^",
	"alt":      "!",
	"shift":    "+",
	"maj":      "+",
	"win":      "#",
	"windows":  "#",
	"super":    "#",
	"meta":     "#",
	"cmd":      "#",
}

// Named keys take their canonical AutoHotkey spelling.
var keyNames = map[string]string{
	"space":      "Space",
	"espace":     "Space",
	"enter":      "Enter",
	"entree":     "Enter",
	"entrée":     "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"tabulation": "Tab",
	"esc":        "Esc",
	"escape":     "Esc",
	"echap":      "Esc",
	"échap":      "Esc",
	"up":         "Up",
	"haut":       "Up",
	"down":       "Down",
	"bas":        "Down",
	"left":       "Left",
	"gauche":     "Left",
	"right":      "Right",
	"droite":     "Right",
	"del":        "Del",
	"delete":     "Del",
	"suppr":      "Del",
}

// Modifiers are always emitted in this order so the result does not
// depend on how the user spelled the combination.
var modifierOrder = [4]string{"^", "!", "+", "#"}

// NormalizeHotkey rewrites a spoken or typed key combination into
// AutoHotkey notation: modifier words become their symbols
// ("ctrl+alt+t" -> "^!t"), named keys take their canonical spelling,
// whitespace and "+" separators are dropped. Symbolic input passes
// through unchanged, so the function is idempotent.
func NormalizeHotkey(combo string) string {
	s := strings.TrimSpace(combo)
	mods := make(map[string]bool, 4)

	// Consume modifier symbols already present at the front.
	for len(s) > 0 {
		c := s[:1]
		if c != "^" && c != "!" && c != "+" && c != "#" {
			break
		}
		mods[c] = true
		s = s[1:]
	}

	var keys []string
	for _, tok := range strings.FieldsFunc(s, isComboSep) {
		low := strings.ToLower(tok)
		if code, ok := modifierCodes[low]; ok {
			mods[code] = true
			continue
		}
		if name, ok := keyNames[low]; ok {
			keys = append(keys, name)
			continue
		}
		keys = append(keys, tok)
	}

	var b strings.Builder
	for _, code := range modifierOrder {
		if mods[code] {
			b.WriteString(code)
		}
	}
	for _, k := range keys {
		b.WriteString(k)
	}
	return b.String()
}

func isComboSep(r rune) bool {
	return r == ' ' || r == '\t' || r == '+'
}
