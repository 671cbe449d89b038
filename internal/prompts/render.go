package prompts

import (
	"os"
	"regexp"
	"strings"
	"time"
)

// Placeholders recognised in templates.
const (
	RealTimeDataPlaceholder = "{{REAL_TIME_DATA}}"
	CSSRootPlaceholder      = "{{ @css_root }}"
	ContentPlaceholder      = "{content}"
	JSContentPlaceholder    = "{js_content}"
)

// RealTimeDataUnavailable is injected when no real-time data was fetched.
const RealTimeDataUnavailable = `{
  "notice": "Real-time data unavailable, use Google Search for the latest data"
}`

var tokenRe = regexp.MustCompile(`\{\{\s*([A-Z_][A-Z0-9_]*)\s*\}\}`)

// Expand substitutes {{KEY}} tokens using vars. Unknown tokens are left in
// place so a later pass can still fill them.
func Expand(template string, vars map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		key := tokenRe.FindStringSubmatch(tok)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return tok
	})
}

// DateVars returns the date values for t, keyed by token name.
func DateVars(t time.Time) map[string]string {
	return map[string]string{
		"DATE":  t.Format("2006-01-02"),
		"YEAR":  t.Format("2006"),
		"MONTH": t.Format("01"),
		"DAY":   t.Format("02"),
	}
}

// ReplaceDates fills both date placeholder styles (<<@day>> and {{DAY}}).
func ReplaceDates(text string, t time.Time) string {
	vars := DateVars(t)
	text = strings.NewReplacer(
		"<<@day>>", vars["DAY"],
		"<<@month>>", vars["MONTH"],
		"<<@year>>", vars["YEAR"],
	).Replace(text)
	return Expand(text, vars)
}

// InjectRealtime fills the real-time data placeholder, using the fixed
// notice when data is empty.
func InjectRealtime(prompt, data string) string {
	if data == "" {
		data = RealTimeDataUnavailable
	}
	return strings.ReplaceAll(prompt, RealTimeDataPlaceholder, data)
}

var cssRootRe = regexp.MustCompile(`(?s):root\s*\{([^}]+)\}`)

// CSSRoot returns the trimmed body of the first :root{} rule found in any
// of the given stylesheet paths.
func CSSRoot(paths []string) (string, bool) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if m := cssRootRe.FindSubmatch(data); m != nil {
			return strings.TrimSpace(string(m[1])), true
		}
	}
	return "", false
}
