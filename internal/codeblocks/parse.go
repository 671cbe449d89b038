package codeblocks

import (
	"regexp"
	"strings"
)

// Block is a single fenced code block from model output.
type Block struct {
	Lang    string // lower-cased info-string word, e.g. "html"
	Content string // content between the fences, untrimmed
}

var fenceOpenRe = regexp.MustCompile("^```\\s*([A-Za-z0-9_+-]*)")

// Parse extracts every closed fenced code block from text, in order of
// appearance. Opening fences look like:
//
//	```html
//	```javascript
//	```
//
// Blocks left unclosed at the end of the text are dropped.
func Parse(text string) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block
	var current *Block
	var buf strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if current != nil {
			if trimmed == "```" {
				current.Content = buf.String()
				blocks = append(blocks, *current)
				current = nil
				buf.Reset()
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			continue
		}

		if m := fenceOpenRe.FindStringSubmatch(trimmed); m != nil {
			current = &Block{Lang: strings.ToLower(m[1])}
			buf.Reset()
		}
	}

	return blocks
}

// Find returns the trimmed content of the first block tagged with lang.
// Blocks that are empty after trimming do not count.
func Find(text, lang string) (string, bool) {
	lang = strings.ToLower(lang)
	for _, b := range Parse(text) {
		if b.Lang != lang {
			continue
		}
		if c := strings.TrimSpace(b.Content); c != "" {
			return c, true
		}
	}
	return "", false
}

// FindAny tries each language in order and returns the first hit.
func FindAny(text string, langs ...string) (string, bool) {
	for _, l := range langs {
		if c, ok := Find(text, l); ok {
			return c, true
		}
	}
	return "", false
}

// Interface holds the three artifacts of a generated report view.
type Interface struct {
	HTML string
	CSS  string
	JS   string
}

// ExtractInterface pulls html, css and javascript (or js) blocks from text.
// ok is false when no HTML block was found; CSS and JS are optional.
func ExtractInterface(text string) (Interface, bool) {
	var out Interface
	html, ok := Find(text, "html")
	if !ok {
		return out, false
	}
	out.HTML = html
	out.CSS, _ = Find(text, "css")
	out.JS, _ = FindAny(text, "javascript", "js")
	return out, true
}

// Unwrap strips a single enclosing code fence from a whole response, as
// models often wrap a translated document in one.
func Unwrap(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	if len(lines) <= 2 {
		return cleaned
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
