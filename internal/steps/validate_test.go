package steps

import (
	"strings"
	"testing"

	"github.com/jorge-barreto/reportd/internal/routing"
)

func padded(s string) string {
	return s + strings.Repeat(".", MinContentLength)
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"vi pass", "KẾT QUẢ KIỂM TRA: PASS", routing.VerdictPass},
		{"vi pass two spaces", "KẾT QUẢ KIỂM TRA:  PASS", routing.VerdictPass},
		{"vi fail", "KẾT QUẢ KIỂM TRA: FAIL\nbtc market 5% fear | BTC Price", routing.VerdictFail},
		{"en result", "VALIDATION RESULT: FAIL", routing.VerdictFail},
		{"final pass after preliminary fail", "Sơ bộ: KẾT QUẢ KIỂM TRA: FAIL\nbổ sung dữ liệu\nKẾT QUẢ KIỂM TRA: PASS", routing.VerdictPass},
		{"pass before fail", "VALIDATION RESULT: PASS\nVALIDATION RESULT: FAIL", routing.VerdictPass},
		{"marker lower case", "kết quả kiểm tra:pass", routing.VerdictPass},
		{"marker newline", "VALIDATION RESULT:\n  FAIL", routing.VerdictFail},
		{"generic pass", "Validation: PASS", routing.VerdictPass},
		{"generic result fail", "validation_result: fail", routing.VerdictFail},
		{"emoji pass", "✅ PASS", routing.VerdictPass},
		{"emoji fail", "❌ Fail", routing.VerdictFail},
		{"short unmarked", "bitcoin market 5% fear | BTC Price", routing.VerdictFail},
		{"long all signals", padded("Bitcoin market analysis, up 5.2 %, fear and greed 70, | BTC Price |"), routing.VerdictPass},
		{"long four signals", padded("BTC thị trường $65000 tham lam"), routing.VerdictPass},
		{"long three signals", padded("BTC market $65000"), routing.VerdictFail},
		{"long nothing", padded("lorem ipsum"), routing.VerdictFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Verdict(tt.content)
			if got != tt.want {
				t.Fatalf("Verdict = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerdict_LengthCountsRunes(t *testing.T) {
	// 1000 three-byte runes is well over 2000 bytes but under the rune threshold.
	content := "BTC market 5% fear | BTC Price " + strings.Repeat("ầ", 1000)
	if got, _ := Verdict(content); got != routing.VerdictFail {
		t.Fatalf("got %s, want FAIL", got)
	}
}

func TestVerdict_Score(t *testing.T) {
	_, score := Verdict(padded("Bitcoin market analysis, up 5.2 %, fear and greed 70, | BTC Price |"))
	if score != 5 {
		t.Fatalf("score = %d, want 5", score)
	}
}
