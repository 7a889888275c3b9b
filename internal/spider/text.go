package spider

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
	sectionBreak = regexp.MustCompile(`\n[ \t]*\n`)
	labelPrefix  = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{0,30}:\s*`)
	quotes       = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
)

// normalizeText lowercases and strips accents so keyword tables match
// regardless of typography.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, quotes.Replace(s))
	return strings.ToLower(cleanText(result))
}

// cleanText collapses all whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLabel drops a leading "Closing date:" style label.
func stripLabel(s string) string {
	return strings.TrimSpace(labelPrefix.ReplaceAllString(s, ""))
}

// RE2's \b only knows ASCII word characters.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// phraseMatcher matches any of a list of phrases on word boundaries.
type phraseMatcher []*regexp.Regexp

func newPhraseMatcher(phrases []string) phraseMatcher {
	m := make(phraseMatcher, 0, len(phrases))
	for _, p := range phrases {
		p = normalizeText(p)
		if p == "" {
			continue
		}
		expr := regexp.QuoteMeta(p)
		if first, _ := utf8.DecodeRuneInString(p); isWordRune(first) {
			expr = wordStart + expr
		}
		if last, _ := utf8.DecodeLastRuneInString(p); isWordRune(last) {
			expr += wordEnd
		}
		m = append(m, regexp.MustCompile(expr))
	}
	return m
}

// matches expects text already passed through normalizeText.
func (m phraseMatcher) matches(text string) bool {
	for _, re := range m {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// firstMatch returns the first selector of the chain that matches anything
// under root, with its selection.
func firstMatch(root *goquery.Selection, chain []string) (string, *goquery.Selection) {
	for _, sel := range chain {
		if found := root.Find(sel); found.Length() > 0 {
			return sel, found
		}
	}
	return "", root.Slice(0, 0)
}

// textChain returns the first non-empty text produced by the chain.
func textChain(root *goquery.Selection, chain []string) string {
	for _, sel := range chain {
		var text string
		root.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = cleanText(s.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// attrChain returns the first non-empty attribute value produced by the chain.
func attrChain(root *goquery.Selection, chain []string, attr string) string {
	for _, sel := range chain {
		var value string
		root.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = strings.TrimSpace(s.AttrOr(attr, ""))
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// resolveURL makes href absolute against base. Unparseable input is returned
// as is.
func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

// idFromURL derives a listing id from an id-like query parameter or the last
// path segment.
func idFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, key := range []string{"id", "jobId", "jobid"} {
		if v := u.Query().Get(key); v != "" {
			return v
		}
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segments[len(segments)-1]
}

var (
	paragraphTags = map[string]bool{"p": true, "blockquote": true}
	blockTags     = map[string]bool{
		"div": true, "section": true, "article": true, "header": true, "footer": true,
		"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"table": true, "tr": true, "pre": true, "form": true, "hr": true, "main": true, "aside": true,
	}
	skipTags = map[string]bool{"script": true, "style": true, "noscript": true, "template": true, "head": true}
)

// textWriter renders text roughly like a browser's innerText: paragraphs are
// separated by a blank line, other blocks by a single newline.
type textWriter struct {
	b       strings.Builder
	pending int
}

func (w *textWriter) requireBreaks(n int) {
	if n > w.pending {
		w.pending = n
	}
}

func (w *textWriter) write(s string) {
	s = spaceRun.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " ")
	if strings.TrimSpace(s) == "" {
		if w.pending == 0 && w.b.Len() > 0 {
			w.b.WriteString(" ")
		}
		return
	}
	if w.pending > 0 && w.b.Len() > 0 {
		w.b.WriteString(strings.Repeat("\n", w.pending))
	}
	w.pending = 0
	w.b.WriteString(s)
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.write(n.Data)
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if n.Data == "br" {
			w.pending++
			return
		}
	}

	breaks := 0
	switch {
	case paragraphTags[n.Data]:
		breaks = 2
	case blockTags[n.Data]:
		breaks = 1
	case n.Data == "td" || n.Data == "th":
		w.write(" ")
	}
	w.requireBreaks(breaks)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	w.requireBreaks(breaks)
}

// blockText extracts the visible text of sel with paragraph structure kept.
func blockText(sel *goquery.Selection) string {
	w := &textWriter{}
	for _, n := range sel.Nodes {
		w.walk(n)
	}
	lines := strings.Split(w.b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// splitSections splits text on blank lines.
func splitSections(text string) []string {
	var out []string
	for _, part := range sectionBreak.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
