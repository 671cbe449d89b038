package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with reportd",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "reportd.yaml fields, environment variables and defaults",
		Content: topicConfig,
	},
	{
		Name:    "pipeline",
		Title:   "Pipeline",
		Summary: "Steps, retry loops and the rate-limit stop",
		Content: topicPipeline,
	},
	{
		Name:    "schedule",
		Title:   "Scheduler",
		Summary: "Daily fire times, timezone and tolerance",
		Content: topicSchedule,
	},
	{
		Name:    "prompts",
		Title:   "Prompt Templates",
		Summary: "Template lookup order and placeholders",
		Content: topicPrompts,
	},
	{
		Name:    "api",
		Title:   "HTTP API",
		Summary: "Endpoints served by 'reportd serve'",
		Content: topicAPI,
	},
}

const topicQuickstart = `Quick Start
===========

1. Scaffold a config and the prompt templates:

    reportd init

   This creates reportd.yaml, prompt_envs/prompt_*.md and
   prompt_envs/colors.css.

2. Export your API key:

    export GEMINI_API_KEY=...

3. Check that everything is reachable:

    reportd doctor

4. Generate one report in the foreground:

    reportd run

5. Or run the HTTP server with the daily scheduler:

    ENABLE_AUTO_REPORT_SCHEDULER=true reportd serve

CLI Commands
------------

  reportd serve                 HTTP API plus the scheduler
  reportd run                   One report, printed step by step
  reportd run --no-save         Run without a database (in-memory store)
  reportd next [--count N]      Show the next scheduled fire times
  reportd latest                Show the newest stored report
  reportd latest --html         Print its HTML instead
  reportd doctor                Check configuration and collaborators
  reportd doctor --last-run     Explain the last exported run
  reportd init [--force]        Scaffold config and prompts
  reportd docs [topic]          Show documentation

Every command accepts --config PATH (default reportd.yaml).
`

const topicConfig = `Configuration Reference
=======================

reportd reads reportd.yaml from the working directory when present.
Environment variables override file values.

Fields
------

  api-key                string    Generation API key.        GEMINI_API_KEY
  http-addr              string    Default ":8000".           HTTP_ADDR
  log-level              string    debug|info|warn|error.     APP_LOG_LEVEL
  max-attempts           int       Research loop cap, 3.      MAX_REPORT_ATTEMPTS
  redis-url              string    Real-time data source.     REDIS_URL
  database-dsn           string    MySQL DSN for reports.     DATABASE_DSN
  auto-migrate           bool      Create the table on start. DATABASE_AUTO_MIGRATE
  artifacts-dir          string    Export each run here.      ARTIFACTS_DIR
  prompt-dirs            list      Default [prompt_envs, ../prompt_envs].
  prompts                map       Inline templates by name.
  progress-max-entries   int       Registry cap, 100.
  cors-origins           list      Default any origin.        CORS_ORIGINS

  scheduler.enabled      bool      Default false.             ENABLE_AUTO_REPORT_SCHEDULER
  scheduler.times        string    "07:30,19:00".             AUTO_REPORT_SCHEDULE_TIMES
  scheduler.timezone     string    "Asia/Ho_Chi_Minh".        REPORT_TIMEZONE

  genai.model            string    "gemini-2.5-flash".        GEMINI_MODEL
  genai.timeout          duration  Per call, 5m.              GENAI_TIMEOUT
  genai.max-retries      int       Transient retries, 2. Negative disables.
  genai.rps              float     Client-side pacing, 0 off. GENAI_RPS
  genai.burst            int       Default 1 when rps is set.

  shutdown.grace         duration  Wait for background runs, 30s. SHUTDOWN_GRACE

Invalid schedule entries are skipped with a warning. If none remain the
config is rejected.
`

const topicPipeline = `Pipeline
========

A run is one sequential pass:

  1 Prepare data        credential, templates, dates, real-time snapshot
  2 Research            search-grounded generation
  3 Validate research   PASS/FAIL verdict
  4 Generate content    report text from research
  5 Create interface    HTML/CSS/JS generation
  6 Extract code        first html, css and javascript fences
  7 Translate           English HTML and JS (CSS is never translated)
  8 Save report         one crypto_report row
  9 Done

Retry loops
-----------

Research and validate repeat until the verdict is PASS or max-attempts
rounds have run. Create interface and extract repeat until HTML is
extracted, at most 3 times. Exhausting either loop ends the run without a
report.

Validation
----------

An explicit "VALIDATION RESULT: PASS|FAIL" (or the Vietnamese
"KẾT QUẢ KIỂM TRA") line wins. Otherwise content under 2000 characters
fails, and longer content passes when at least 4 of 5 signals are found:
a bitcoin mention, analysis vocabulary, numbers or percentages, sentiment
words and a comparison table.

Rate limits
-----------

A rate-limit response from any step stops the run. Remaining generation
steps are skipped, nothing is saved and the run ends as "rate_limited".
Translation failures that are not rate limits only leave the English
field empty.
`

const topicSchedule = `Scheduler
=========

'reportd serve' starts the scheduler when scheduler.enabled is true and an
API key is set.

The scheduler sleeps until the next configured time of day in the
configured timezone. If no time is left today it picks the first time
tomorrow. On wake it checks that it is within 5 minutes of a configured
time (across midnight too) and skips the run otherwise, for example
after the host was suspended.

A failed run is logged and the scheduler waits for the next time. Runs
never overlap: each scheduled run completes before the next sleep.

Preview the upcoming times with:

    reportd next --count 5
`

const topicPrompts = `Prompt Templates
================

Six templates drive a run:

  combined_research_validation   Required. Research prompt.
  data_validation                Optional.
  create_report                  Report text instructions.
  generate_report                HTML/CSS/JS instructions, uses {content}.
  translate_html                 Uses {content}.
  translate_js                   Uses {js_content}.

Lookup order for each name:

  1. An environment variable with the template name.
  2. prompts.<name> in reportd.yaml.
  3. <dir>/.env.prompt_<name> (a KEY="value" file) in each prompt dir.
  4. <dir>/prompt_<name>.md in each prompt dir.

Placeholders
------------

  <<@day>> <<@month>> <<@year>>    Today in the report timezone.
  {{DATE}} {{YEAR}} {{MONTH}} {{DAY}}
  {{REAL_TIME_DATA}}               Latest market snapshot as JSON.
  {{ @css_root }}                  Body of :root{} from colors.css.
`

const topicAPI = `HTTP API
========

  GET  /health                              {"status":"healthy"}
  POST /api/reports/generate                Start a background run.
                                            Returns session_id.
  GET  /api/reports/progress/:session_id    Step, status and percentage.
  POST /api/reports/manual                  Run synchronously, returns
                                            report_id.
  GET  /api/reports/scheduler-status        Switches and next run.
  GET  /api/reports/latest                  Newest report summary.
  GET  /api/reports/:id                     Full report content.

Progress status is one of starting, in_progress, completed or error.
Completed sessions are evicted oldest first once more than
progress-max-entries are held.
`
