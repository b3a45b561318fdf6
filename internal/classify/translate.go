package classify

import (
	"fmt"
	"sort"
	"strings"
)

// Translation services a shortcut can be wired to.
const (
	ServiceDeepL   = "deepl"
	ServiceGoogle  = "google"
	ServiceReverso = "reverso"
)

var serviceURLs = map[string]string{
	ServiceDeepL:   "https://www.deepl.com/translator#%s/%s/",
	ServiceGoogle:  "https://translate.google.com/?sl=%s&tl=%s&op=translate",
	ServiceReverso: "https://www.reverso.net/text-translation#sl=%s&tl=%s",
}

// langWords is matched against the command text to guess the
// translation direction: the first name found (in text order) is the
// source language, the second the target.
var langWords = []struct{ word, code string }{
	{"français", "fr"},
	{"francais", "fr"},
	{"french", "fr"},
	{"anglais", "en"},
	{"english", "en"},
	{"espagnol", "es"},
	{"spanish", "es"},
	{"allemand", "de"},
	{"german", "de"},
	{"italien", "it"},
	{"italian", "it"},
}

// parseTranslationSpec extracts the target service and translation
// direction from the free-text tail of a translation command. Unknown
// services fall back to DeepL; a missing direction falls back to
// French to English, and a single language name is taken as the target.
func parseTranslationSpec(spec string) map[string]string {
	low := strings.ToLower(spec)

	service := ServiceDeepL
	for _, s := range []string{ServiceDeepL, ServiceGoogle, ServiceReverso} {
		if strings.Contains(low, s) {
			service = s
			break
		}
	}

	type hit struct {
		pos  int
		code string
	}
	var hits []hit
	for _, lw := range langWords {
		i := strings.Index(low, lw.word)
		if i < 0 {
			continue
		}
		seen := false
		for _, h := range hits {
			if h.code == lw.code {
				seen = true
				break
			}
		}
		if !seen {
			hits = append(hits, hit{i, lw.code})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	source, target := "fr", "en"
	switch {
	case len(hits) >= 2:
		source, target = hits[0].code, hits[1].code
	case len(hits) == 1:
		target = hits[0].code
		if target == "fr" {
			source = "en"
		}
	}

	return map[string]string{
		"service":     service,
		"source_lang": source,
		"target_lang": target,
		"service_url": fmt.Sprintf(serviceURLs[service], source, target),
	}
}
