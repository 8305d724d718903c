package langid

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// languageNames maps lowercase language codes to display names.
var languageNames = map[string]string{
	"en": "English", "en-us": "English", "en-gb": "English (UK)",
	"es": "Spanish", "fr": "French", "de": "German", "it": "Italian",
	"pt": "Portuguese", "pt-br": "Portuguese (Brazil)",
	"ru": "Russian", "ja": "Japanese", "ko": "Korean",
	"zh": "Chinese", "zh-cn": "Chinese (Simplified)", "zh-tw": "Chinese (Traditional)",
	"zh-hans": "Chinese (Simplified)", "zh-hant": "Chinese (Traditional)",
	"ar": "Arabic", "hi": "Hindi", "tr": "Turkish", "nl": "Dutch",
	"pl": "Polish", "sv": "Swedish", "da": "Danish", "fi": "Finnish",
	"no": "Norwegian", "nb": "Norwegian", "nn": "Norwegian",
	"th": "Thai", "vi": "Vietnamese", "id": "Indonesian",
	"ms": "Malay", "tl": "Filipino", "fil": "Filipino",
	"uk": "Ukrainian", "cs": "Czech",
	"el": "Greek", "he": "Hebrew", "hu": "Hungarian", "ro": "Romanian",
	"bg": "Bulgarian", "hr": "Croatian", "sk": "Slovak", "sl": "Slovenian",
	"sr": "Serbian", "lt": "Lithuanian", "lv": "Latvian", "et": "Estonian",
	"bn": "Bengali", "ta": "Tamil", "te": "Telugu", "ml": "Malayalam",
	"kn": "Kannada", "mr": "Marathi", "gu": "Gujarati", "pa": "Punjabi",
	"ur": "Urdu", "fa": "Persian", "sw": "Swahili", "af": "Afrikaans",
	"ca": "Catalan", "eu": "Basque", "gl": "Galician",
	"is": "Icelandic",
	"am": "Amharic", "az": "Azerbaijani", "my": "Burmese",
	"ka": "Georgian", "ha": "Hausa", "ig": "Igbo",
	"kk": "Kazakh", "km": "Khmer", "lo": "Lao",
	"mn": "Mongolian", "ne": "Nepali", "si": "Sinhala",
	"uz": "Uzbek", "yo": "Yoruba", "zu": "Zulu",
}

// nameSynonyms adds alternate spellings and colloquial names on top of the
// reverse mapping derived from languageNames. Used by the detector's
// text-scanning heuristics.
var nameSynonyms = map[string]string{
	"mandarin": "Chinese", "cantonese": "Chinese", "chinese": "Chinese",
	"brazilian portuguese": "Portuguese (Brazil)", "brazilian": "Portuguese (Brazil)",
	"tagalog": "Filipino", "farsi": "Persian",
	"bangla": "Bengali", "odia": "Odia", "oriya": "Odia",
	"assamese": "Assamese", "nepali": "Nepali", "sinhala": "Sinhala",
	"burmese": "Burmese", "khmer": "Khmer", "lao": "Lao",
	"mongolian": "Mongolian", "tibetan": "Tibetan", "uzbek": "Uzbek",
	"kazakh": "Kazakh", "azerbaijani": "Azerbaijani", "georgian": "Georgian",
	"armenian": "Armenian", "amharic": "Amharic", "yoruba": "Yoruba",
	"igbo": "Igbo", "hausa": "Hausa", "zulu": "Zulu", "xhosa": "Xhosa",
	"icelandic": "Icelandic",
}

// Name maps a language code to a human-readable display name, falling back
// to the code's base form (prefix before a region suffix) on miss. Returns
// "" for unknown codes.
func Name(code string) string {
	if code == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(code))
	if name, ok := languageNames[normalized]; ok {
		return name
	}
	return languageNames[BaseCode(normalized)]
}

// BaseCode strips any region or script suffix from a language code,
// e.g. "en-US" -> "en", "hi-orig" -> "hi". Prefers x/text parsing and falls
// back to a plain prefix split for codes it does not recognize.
func BaseCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	return strings.SplitN(code, "-", 2)[0]
}

// NameLookup returns the lowercase-name -> display-name table used by the
// detector heuristics: the reverse of the code table plus curated synonyms.
func NameLookup() map[string]string {
	ret := make(map[string]string, len(languageNames)+len(nameSynonyms))
	for _, name := range languageNames {
		ret[strings.ToLower(name)] = name
	}
	for alias, name := range nameSynonyms {
		ret[alias] = name
	}
	return ret
}

// namesLongestFirst returns the lookup keys sorted longest first, so that a
// shorter language name never matches inside a longer one.
func namesLongestFirst(lookup map[string]string) []string {
	keys := make([]string, 0, len(lookup))
	for k := range lookup {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
