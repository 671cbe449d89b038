package prompts

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Template names, also used as env / config keys.
const (
	CombinedResearchValidation = "combined_research_validation"
	DataValidation             = "data_validation"
	CreateReport               = "create_report"
	GenerateReport             = "generate_report"
	TranslateHTML              = "translate_html"
	TranslateJS                = "translate_js"
)

// Names lists every template prepare loads, primary first.
var Names = []string{
	CombinedResearchValidation,
	DataValidation,
	CreateReport,
	GenerateReport,
	TranslateHTML,
	TranslateJS,
}

// Source looks up a prompt template by name.
type Source interface {
	Lookup(name string) (string, bool)
}

// Loader resolves templates from the environment, then the viper config,
// then files under the prompt directories.
type Loader struct {
	v        *viper.Viper
	dirs     []string
	cssPaths []string
}

// DefaultDirs are searched when no directory is configured.
var DefaultDirs = []string{"prompt_envs", filepath.Join("..", "prompt_envs")}

// NewLoader builds a Loader. v may be nil.
func NewLoader(v *viper.Viper, dirs ...string) *Loader {
	if len(dirs) == 0 {
		dirs = DefaultDirs
	}
	css := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		css = append(css, filepath.Join(d, "colors.css"))
	}
	css = append(css, filepath.Join("app", "static", "css", "colors.css"))
	return &Loader{v: v, dirs: dirs, cssPaths: css}
}

// Lookup implements Source.
func (l *Loader) Lookup(name string) (string, bool) {
	content, from := l.raw(name)
	if content == "" {
		log.Warn().Str("prompt", name).Msg("prompt not found in env, config or files")
		return "", false
	}
	log.Debug().Str("prompt", name).Str("source", from).Msg("prompt loaded")
	if strings.Contains(content, CSSRootPlaceholder) {
		root, _ := CSSRoot(l.cssPaths)
		content = strings.ReplaceAll(content, CSSRootPlaceholder, root)
	}
	return content, true
}

func (l *Loader) raw(name string) (string, string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v, "env"
	}
	if l.v != nil {
		if v := l.v.GetString("prompts." + name); v != "" {
			return v, "config"
		}
		if v := l.v.GetString(name); v != "" {
			return v, "config"
		}
	}
	for _, d := range l.dirs {
		for _, p := range []string{
			filepath.Join(d, ".env.prompt_"+name),
			filepath.Join(d, "prompt_"+name+".md"),
		} {
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if v := parseEnvFile(string(data)); v != "" {
				return v, p
			}
			log.Warn().Str("path", p).Msg("prompt file is empty")
		}
	}
	return "", ""
}

var envAssignRe = regexp.MustCompile(`(?s)^\s*[A-Za-z_][A-Za-z0-9_]*\s*=\s*(["'])(.*)(["'])\s*$`)

// parseEnvFile unwraps a KEY="value" file into its value. Anything that is
// not a single quoted assignment is returned as-is.
func parseEnvFile(content string) string {
	if m := envAssignRe.FindStringSubmatch(content); m != nil && m[1] == m[3] {
		return m[2]
	}
	return strings.TrimSpace(content)
}

// MapSource is a fixed in-memory Source.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok && v != ""
}
