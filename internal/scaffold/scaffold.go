// Package scaffold writes a starter reportd.yaml and the prompt templates a
// run needs.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/ux"
)

const configTemplate = `# reportd configuration. Environment variables override every value here.
http-addr: ":8000"
log-level: info
max-attempts: 3

# api-key is better supplied as GEMINI_API_KEY.
# api-key: ""

# redis-url: redis://localhost:6379/0
# database-dsn: user:pass@tcp(localhost:3306)/reports?parseTime=true
auto-migrate: false

artifacts-dir: ""
prompt-dirs:
  - prompt_envs

scheduler:
  enabled: false
  times: "07:30,19:00"
  timezone: Asia/Ho_Chi_Minh

genai:
  model: gemini-2.5-flash
  timeout: 5m
  max-retries: 2
  rps: 0

shutdown:
  grace: 30s
`

const colorsTemplate = `:root {
  --bg: #0b0f19;
  --surface: #141a2a;
  --text: #e6e9f2;
  --muted: #8a93a8;
  --accent: #f7931a;
  --up: #16c784;
  --down: #ea3943;
}
`

// Files maps every path Init writes, relative to the target directory, to
// its content.
func Files() map[string]string {
	files := map[string]string{
		"reportd.yaml":                              configTemplate,
		filepath.Join("prompt_envs", "colors.css"): colorsTemplate,
	}
	for name, body := range promptTemplates {
		files[filepath.Join("prompt_envs", "prompt_"+name+".md")] = body
	}
	return files
}

// Init writes the starter files into targetDir. Existing files are kept
// unless force is set.
func Init(targetDir string, w io.Writer, force bool) error {
	files := Files()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if !force {
		for _, p := range paths {
			if _, err := os.Stat(filepath.Join(targetDir, p)); err == nil {
				return fmt.Errorf("%s already exists in %s (use --force to overwrite)", p, targetDir)
			}
		}
	}

	for _, p := range paths {
		full := filepath.Join(targetDir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", p, err)
		}
		if err := os.WriteFile(full, []byte(files[p]), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
	}

	fmt.Fprintf(w, "\n%s%s✓ Initialized reportd in %s%s\n\n", ux.Bold, ux.Green, targetDir, ux.Reset)
	fmt.Fprintf(w, "  Created:\n")
	for _, p := range paths {
		fmt.Fprintf(w, "    %s%s%s\n", ux.Cyan, p, ux.Reset)
	}
	fmt.Fprintf(w, "\n  Next steps:\n")
	fmt.Fprintf(w, "    1. Export %sGEMINI_API_KEY%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    2. Edit the templates under %sprompt_envs/%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    3. Run %sreportd run%s for a one-off report\n\n", ux.Cyan, ux.Reset)
	return nil
}

// PromptNames lists the templates Init writes, in load order.
func PromptNames() []string {
	out := make([]string, 0, len(prompts.Names))
	for _, n := range prompts.Names {
		if _, ok := promptTemplates[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
