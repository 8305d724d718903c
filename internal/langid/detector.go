package langid

import (
	"regexp"
	"strings"
	"sync"
)

// Signals carries everything the detector may consult about one video.
type Signals struct {
	Title           string
	Description     string
	Channel         string
	Tags            []string
	DeclaredCode    string // uploader-declared language code
	OriginalASRCode string // language code of the original auto-caption track
}

// Hint is the outcome of one detector heuristic.
type Hint struct {
	Language string // display name
	Source   string // which heuristic produced it
}

type heuristic struct {
	name string
	fn   func(Signals) string
}

// Detect runs the heuristic cascade in order and returns the first
// non-empty result. Later heuristics never override an earlier hit.
func Detect(sig Signals) (Hint, bool) {
	for _, h := range cascade() {
		if lang := h.fn(sig); lang != "" {
			return Hint{Language: lang, Source: h.name}, true
		}
	}
	return Hint{}, false
}

func cascade() []heuristic {
	return []heuristic{
		{name: "description", fn: func(s Signals) string { return detectFromDescription(s.Description, s.Channel) }},
		{name: "title-context", fn: func(s Signals) string { return detectFromTitleContext(s.Title) }},
		{name: "title-mention", fn: func(s Signals) string { return detectFromTitleMention(s.Title) }},
		{name: "script", fn: func(s Signals) string { return detectFromScript(s.Title) }},
		{name: "tags", fn: func(s Signals) string { return detectFromTags(s.Tags) }},
		{name: "declared", fn: func(s Signals) string { return Name(s.DeclaredCode) }},
		{name: "asr", fn: func(s Signals) string { return Name(s.OriginalASRCode) }},
	}
}

// descriptionKeywords is ordered; on equal scores the earlier entry wins.
// Keyword sets mix native-script spellings, transliterations, and short
// space-padded region codes.
var descriptionKeywords = []struct {
	lang     string
	keywords []string
}{
	{"Tamil", []string{"tamil", "தமிழ்", " ta ", " tn "}},
	{"Telugu", []string{"telugu", "తెలుగు", " te ", " ap ", " telangana"}},
	{"Hindi", []string{"hindi", "हिन्दी", " hi "}},
	{"Kannada", []string{"kannada", "ಕನ್ನಡ", " kn ", " karnataka"}},
	{"Malayalam", []string{"malayalam", "മലയാളം", " ml ", " kerala"}},
	{"Bengali", []string{"bengali", "bangla", "বাংলা", " bn ", " wb "}},
	{"Marathi", []string{"marathi", "मराठी", " mr ", " maharashtra"}},
	{"Gujarati", []string{"gujarati", "ગુજરાતી", " gu "}},
	{"Punjabi", []string{"punjabi", "ਪੰਜਾਬੀ", " pa "}},
	{"Sanskrit", []string{"sanskrit", "संस्कृत", " sa "}},
}

var spiritualKeywords = []string{"spiritual", "devotional", "bhakti"}

var southIndianDeities = []string{
	"venkateshwara", "venkateswara", "balaji", "tirupati",
	"murugan", "subrahmanya", "ayyappa", "meenakshi",
	"vishnu", "shiva", "krishna", "rama",
}

func detectFromDescription(description, channel string) string {
	if description == "" && channel == "" {
		return ""
	}
	combined := strings.ToLower(description + " " + channel)

	best := ""
	bestScore := 0
	for _, entry := range descriptionKeywords {
		score := 0
		for _, kw := range entry.keywords {
			score += strings.Count(combined, kw)
		}
		if score > bestScore {
			best = entry.lang
			bestScore = score
		}
	}
	if best != "" {
		return best
	}

	// Weak last-resort rule: devotional content mentioning South Indian
	// deities defaults to Tamil when nothing else matched. Low confidence,
	// only fires with zero keyword scores.
	if containsAny(combined, spiritualKeywords) && containsAny(combined, southIndianDeities) {
		return "Tamil"
	}
	return ""
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// nameMatcher holds the compiled per-language-name patterns used by the
// text-scanning heuristics. Built once, ordered longest name first.
type nameMatcher struct {
	display string
	medium  *regexp.Regexp // "through/thru/via <name>" with spaces
	hashtag *regexp.Regexp // "...through<name>" glued inside a hashtag token
	general *regexp.Regexp // bare "<name>" bounded by punctuation or string edges
	tagWord *regexp.Regexp // "<name>" as a whole word inside a tag
}

var (
	buildMatchersOnce sync.Once
	nameMatchers      []nameMatcher
	hashtagPattern    = regexp.MustCompile(`#(\w+)`)
)

func matchers() []nameMatcher {
	buildMatchersOnce.Do(buildMatchers)
	return nameMatchers
}

func buildMatchers() {
	lookup := NameLookup()
	keys := namesLongestFirst(lookup)

	nameMatchers = make([]nameMatcher, 0, len(keys))
	for _, key := range keys {
		quoted := regexp.QuoteMeta(key)
		nameMatchers = append(nameMatchers, nameMatcher{
			display: lookup[key],
			medium:  regexp.MustCompile(`(?:through|thru|via)\s+` + quoted + `(?:[\s\.\,\|\)\]!?]|$)`),
			hashtag: regexp.MustCompile(`(?:through|thru|via)` + quoted + `$`),
			general: regexp.MustCompile(`(?:^|[\|\(\[\-–—,\s])` + quoted + `(?:[\|\)\]\-–—,\s]|$)`),
			tagWord: regexp.MustCompile(`(?:^|[\s])` + quoted + `(?:[\s]|$)`),
		})
	}
}

// detectFromTitleContext looks for "<connector> <language>" phrases, where
// the connector means "by means of" ("Learn Japanese through Tamil" is
// spoken Tamil), and the same pattern glued inside hashtag tokens
// ("#englishthroughtamil").
func detectFromTitleContext(title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)

	for _, m := range matchers() {
		if m.medium.MatchString(lower) {
			return m.display
		}
	}

	for _, tag := range hashtagPattern.FindAllStringSubmatch(lower, -1) {
		for _, m := range matchers() {
			if m.hashtag.MatchString(tag[1]) {
				return m.display
			}
		}
	}
	return ""
}

// detectFromTitleMention matches a bare language name in the title bounded
// by punctuation, whitespace, or the string edges.
func detectFromTitleMention(title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	for _, m := range matchers() {
		if m.general.MatchString(lower) {
			return m.display
		}
	}
	return ""
}

// scriptRanges maps Unicode code-point ranges to languages. The slice order
// decides ties among overlapping scripts; the first range containing any
// title character wins.
var scriptRanges = []struct {
	lang   string
	lo, hi rune
}{
	{"Tamil", 0x0B80, 0x0BFF},
	{"Hindi", 0x0900, 0x097F}, // Devanagari (also Marathi, Nepali)
	{"Bengali", 0x0980, 0x09FF},
	{"Telugu", 0x0C00, 0x0C7F},
	{"Kannada", 0x0C80, 0x0CFF},
	{"Malayalam", 0x0D00, 0x0D7F},
	{"Sinhala", 0x0D80, 0x0DFF},
	{"Gujarati", 0x0A80, 0x0AFF},
	{"Punjabi", 0x0A00, 0x0A7F}, // Gurmukhi
	{"Thai", 0x0E00, 0x0E7F},
	{"Lao", 0x0E80, 0x0EFF},
	{"Arabic", 0x0600, 0x06FF}, // also covers Urdu, Persian
	{"Hebrew", 0x0590, 0x05FF},
	{"Greek", 0x0370, 0x03FF},
	{"Russian", 0x0400, 0x04FF}, // Cyrillic (also Serbian, Ukrainian)
	{"Georgian", 0x10A0, 0x10FF},
	{"Amharic", 0x1200, 0x137F}, // Ethiopic
	{"Burmese", 0x1000, 0x109F}, // Myanmar
	{"Khmer", 0x1780, 0x17FF},
	{"Korean", 0xAC00, 0xD7AF}, // Hangul
	{"Japanese", 0x3040, 0x309F}, // Hiragana
	{"Chinese", 0x4E00, 0x9FFF}, // CJK Unified Ideographs
}

func detectFromScript(title string) string {
	if title == "" {
		return ""
	}
	for _, sr := range scriptRanges {
		for _, ch := range title {
			if ch >= sr.lo && ch <= sr.hi {
				return sr.lang
			}
		}
	}
	return ""
}

// detectFromTags counts language-name mentions across all tags and prefers
// the best non-English match; many non-English creators tag "english"
// generically, so English only wins when nothing else is mentioned.
func detectFromTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, m := range matchers() {
			if m.tagWord.MatchString(lower) {
				if counts[m.display] == 0 {
					order = append(order, m.display)
				}
				counts[m.display]++
			}
		}
	}
	if len(counts) == 0 {
		return ""
	}

	best := ""
	bestCount := 0
	for _, lang := range order {
		if lang == "English" {
			continue
		}
		if counts[lang] > bestCount {
			best = lang
			bestCount = counts[lang]
		}
	}
	if best != "" {
		return best
	}
	return "English"
}
