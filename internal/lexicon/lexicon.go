package lexicon

import (
	"regexp"
	"strings"

	"github.com/example/wordreview/pkg/models"
)

// Blank replaces the hidden word in a cloze sentence
const Blank = "_______"

// Entry is a vocabulary word as presented to the learner
type Entry interface {
	Language() string
	MainWord() string
	Phonetic() string
	ExampleText() string
	// Cloze returns the example with the main word blanked out
	Cloze() string
}

// Strategy builds the Entry for words of one language
type Strategy interface {
	Language() string
	Entry(v models.VocabularyEntry) Entry
}

var strategies = map[string]Strategy{
	"en": englishStrategy{},
	"ja": japaneseStrategy{},
	"ko": cjkStrategy{code: "ko"},
	"zh": cjkStrategy{code: "zh"},
}

// Lookup returns the strategy for an ISO 639-1 code. An empty code means
// English; unknown codes get a plain strategy that shows the stored fields.
func Lookup(code string) Strategy {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = "en"
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if s, ok := strategies[code]; ok {
		return s
	}
	return plainStrategy{code: code}
}

// Present wraps v using the strategy of its language
func Present(v models.VocabularyEntry) Entry {
	return Lookup(v.Language).Entry(v)
}

// English

type englishStrategy struct{}

func (englishStrategy) Language() string { return "en" }

func (englishStrategy) Entry(v models.VocabularyEntry) Entry {
	return englishEntry{v: v}
}

type englishEntry struct {
	v models.VocabularyEntry
}

func (e englishEntry) Language() string    { return "en" }
func (e englishEntry) MainWord() string    { return strings.TrimSpace(e.v.Word) }
func (e englishEntry) ExampleText() string { return strings.TrimSpace(e.v.Example) }

func (e englishEntry) Phonetic() string {
	p := strings.Trim(strings.TrimSpace(e.v.Phonetic), "/[]")
	if p == "" {
		return ""
	}
	return "/" + p + "/"
}

func (e englishEntry) Cloze() string {
	return blankWholeWord(e.ExampleText(), e.MainWord())
}

// Japanese words may carry their reading in brackets, e.g. 食べる（たべる）

type japaneseStrategy struct{}

func (japaneseStrategy) Language() string { return "ja" }

func (japaneseStrategy) Entry(v models.VocabularyEntry) Entry {
	word, reading := splitReading(v.Word)
	if reading == "" {
		reading = strings.TrimSpace(v.Phonetic)
	}
	return cjkEntry{code: "ja", word: word, reading: reading, example: firstLine(v.Example)}
}

var readingPattern = regexp.MustCompile(`^(.+?)\s*[（(]([^）)]+)[）)]\s*$`)

func splitReading(word string) (string, string) {
	word = strings.TrimSpace(word)
	m := readingPattern.FindStringSubmatch(word)
	if m == nil {
		return word, ""
	}
	return m[1], m[2]
}

// Korean and Chinese store romanization or pinyin in the phonetic field

type cjkStrategy struct {
	code string
}

func (s cjkStrategy) Language() string { return s.code }

func (s cjkStrategy) Entry(v models.VocabularyEntry) Entry {
	return cjkEntry{
		code:    s.code,
		word:    strings.TrimSpace(v.Word),
		reading: strings.TrimSpace(v.Phonetic),
		example: firstLine(v.Example),
	}
}

type cjkEntry struct {
	code    string
	word    string
	reading string
	example string
}

func (e cjkEntry) Language() string    { return e.code }
func (e cjkEntry) MainWord() string    { return e.word }
func (e cjkEntry) Phonetic() string    { return e.reading }
func (e cjkEntry) ExampleText() string { return e.example }

// Cloze blanks the first occurrence of the word; CJK text has no spaces
// to anchor on.
func (e cjkEntry) Cloze() string {
	if e.example == "" || e.word == "" {
		return e.example
	}
	if strings.Contains(e.example, e.word) {
		return strings.Replace(e.example, e.word, Blank, 1)
	}
	if e.reading != "" && strings.Contains(e.example, e.reading) {
		return strings.Replace(e.example, e.reading, Blank, 1)
	}
	return e.example + " " + Blank
}

// Fallback for languages without a dedicated strategy

type plainStrategy struct {
	code string
}

func (s plainStrategy) Language() string { return s.code }

func (s plainStrategy) Entry(v models.VocabularyEntry) Entry {
	return plainEntry{code: s.code, v: v}
}

type plainEntry struct {
	code string
	v    models.VocabularyEntry
}

func (e plainEntry) Language() string    { return e.code }
func (e plainEntry) MainWord() string    { return strings.TrimSpace(e.v.Word) }
func (e plainEntry) Phonetic() string    { return strings.TrimSpace(e.v.Phonetic) }
func (e plainEntry) ExampleText() string { return strings.TrimSpace(e.v.Example) }
func (e plainEntry) Cloze() string       { return blankWholeWord(e.ExampleText(), e.MainWord()) }

// blankWholeWord replaces the first case-insensitive whole-word match of word.
// Without a match the blank is appended.
func blankWholeWord(sentence, word string) string {
	if sentence == "" || word == "" {
		return sentence
	}
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	loc := pattern.FindStringIndex(sentence)
	if loc == nil {
		return sentence + " " + Blank
	}
	return sentence[:loc[0]] + Blank + sentence[loc[1]:]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
