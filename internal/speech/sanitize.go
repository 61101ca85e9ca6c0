package speech

import (
	"regexp"
	"strings"
)

// operatorWords are applied in order; longer tokens that share a prefix
// with a later entry must stay ahead of it.
var operatorWords = []struct {
	token string
	words string
}{
	{"++", " plus plus "},
	{"--", " minus minus "},
	{"==", " equals equals "},
	{"!=", " not equals "},
	{"<=", " less than or equal to "},
	{">=", " greater than or equal to "},
	{"->", " arrow "},
	{"=>", " fat arrow "},
	{"+=", " plus equals "},
	{"-=", " minus equals "},
	{"*=", " times equals "},
	{"/=", " divided by equals "},
	{"&&", " and "},
	{"||", " or "},
}

var keywords = map[string]bool{
	"for": true, "if": true, "else": true, "while": true, "do": true,
	"switch": true, "case": true, "break": true, "continue": true,
	"return": true, "function": true, "class": true, "const": true,
	"let": true, "var": true, "new": true, "this": true, "super": true,
	"try": true, "catch": true, "throw": true, "async": true, "await": true,
	"import": true, "export": true, "from": true, "default": true,
	"true": true, "false": true, "null": true, "undefined": true,
	"in": true, "of": true,
}

var (
	indexExpr     = regexp.MustCompile("`?([a-zA-Z_][a-zA-Z0-9_]*)\\[([a-zA-Z_][a-zA-Z0-9_]*)\\]`?")
	backtickIdent = regexp.MustCompile("`([a-zA-Z_][a-zA-Z0-9_]*)`")
	markdownMarks = regexp.MustCompile("[*_~`#]")
	brackets      = regexp.MustCompile(`[\[\](){}]`)
	bullets       = regexp.MustCompile(`[•◦▪]`)
	newlines      = regexp.MustCompile(`\n+`)
	spaces        = regexp.MustCompile(`\s+`)
	dotRuns       = regexp.MustCompile(`\.{2,}`)
)

// Sanitize rewrites code-flavoured text into something a speech engine
// reads naturally: operators become words, identifiers are spelled out
// letter by letter and markdown noise is dropped.
func Sanitize(text string) string {
	for _, op := range operatorWords {
		text = strings.ReplaceAll(text, op.token, op.words)
	}

	text = indexExpr.ReplaceAllStringFunc(text, func(m string) string {
		sub := indexExpr.FindStringSubmatch(m)
		return spellIdent(sub[1]) + " of " + spellIdent(sub[2])
	})
	text = backtickIdent.ReplaceAllStringFunc(text, func(m string) string {
		return spellIdent(backtickIdent.FindStringSubmatch(m)[1])
	})

	text = markdownMarks.ReplaceAllString(text, "")
	text = brackets.ReplaceAllString(text, " ")
	text = bullets.ReplaceAllString(text, "")
	text = newlines.ReplaceAllString(text, ". ")
	text = spaces.ReplaceAllString(text, " ")
	text = dotRuns.ReplaceAllString(text, ".")
	return strings.TrimSpace(text)
}

// spellIdent spells name as upper-case letters separated by spaces unless
// it is a common keyword.
func spellIdent(name string) string {
	if keywords[strings.ToLower(name)] {
		return name
	}
	letters := strings.Split(name, "")
	return strings.ToUpper(strings.Join(letters, " "))
}
