package scaffold

import "github.com/jorge-barreto/reportd/internal/prompts"

var promptTemplates = map[string]string{
	prompts.CombinedResearchValidation: researchPrompt,
	prompts.DataValidation:             dataValidationPrompt,
	prompts.CreateReport:               createReportPrompt,
	prompts.GenerateReport:             generateReportPrompt,
	prompts.TranslateHTML:              translateHTMLPrompt,
	prompts.TranslateJS:                translateJSPrompt,
}

const researchPrompt = `You are a senior crypto market analyst. Today is <<@day>>/<<@month>>/<<@year>> ({{DATE}}).

## Real-time data

The collector's latest snapshot is below. Prefer it over search results when
they disagree, and say so.

` + "```json" + `
{{REAL_TIME_DATA}}
` + "```" + `

## Task

Research the crypto market for {{DATE}} using Google Search and the data
above. Cover:

1. Bitcoin (BTC) price, 24h change and RSI(14)
2. Major altcoins: ETH, SOL, XRP, ADA, LINK, BNB
3. Total market cap, 24h volume and BTC dominance
4. The Fear & Greed index and overall sentiment
5. Macro drivers: US indices, rates, ETF flows, regulation
6. Short-term outlook with key support and resistance levels

Express changes as percentages and prices in USD.

## Self-check

Finish with a table titled "Validation Summary" comparing every figure you
used against the real-time snapshot (columns: | BTC Price | Source | Match |).
Then write exactly one final line:

VALIDATION RESULT: PASS

if every key figure is consistent and current, otherwise:

VALIDATION RESULT: FAIL
`

const dataValidationPrompt = `Check the research below for stale or inconsistent figures as of {{DATE}}.
List each problem found. End with "VALIDATION RESULT: PASS" or
"VALIDATION RESULT: FAIL".
`

const createReportPrompt = `Write a professional crypto market report for {{DATE}} based on the research
below. Use clear section headings, keep every figure from the research, and
end with a short outlook. Do not invent numbers.
`

const generateReportPrompt = `Create a complete, responsive HTML page for the crypto market report below.

## Requirements
1. Dark theme using these CSS variables:
{{ @css_root }}
2. Cards for each asset with price and 24h change coloured by direction
3. A sentiment gauge for the Fear & Greed index
4. Mobile-first layout, no external assets

## Report Content
{content}

## Output Format
Return three separate fenced code blocks: html, css and javascript.
`

const translateHTMLPrompt = `Translate the visible text of this HTML into English. Keep every tag,
attribute, class name and number unchanged. Return only the HTML.

{content}
`

const translateJSPrompt = `Translate the user-facing string literals in this JavaScript into English.
Do not change identifiers, logic or numbers. Return only the code.

{js_content}
`
