package classify

import "strings"

// RenderWindowActions turns a free-text action list into AutoHotkey
// primitives, one per line. Segments are separated by commas or
// semicolons. Recognized verbs: type/taper (raw text entry),
// click/cliquer (left, right or middle button), wait/attendre (duration
// in milliseconds). Unrecognized segments are passed through as a
// keystroke send.
func RenderWindowActions(text string) string {
	var lines []string
	for _, seg := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' }) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		lines = append(lines, renderAction(seg))
	}
	return strings.Join(lines, "\n")
}

func renderAction(seg string) string {
	fields := strings.Fields(seg)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(seg[len(fields[0]):])
	switch verb {
	case "type", "taper", "saisir", "ecrire", "écrire":
		return "SendRaw, " + rest
	case "click", "clic", "cliquer":
		low := strings.ToLower(rest)
		switch {
		case strings.Contains(low, "right") || strings.Contains(low, "droit"):
			return "Click, Right"
		case strings.Contains(low, "middle") || strings.Contains(low, "milieu"):
			return "Click, Middle"
		default:
			return "Click"
		}
	case "wait", "attendre", "pause":
		for _, f := range fields[1:] {
			if isDigits(f) {
				return "Sleep, " + f
			}
		}
		return "Sleep, 1000"
	default:
		return "Send, " + seg
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
