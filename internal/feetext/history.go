package feetext

import (
	"regexp"
	"strings"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

var (
	wasMarker     = "كانت"
	changeMarkers = []string{"تم تعديل", "تم التعديل"}
	cancelMarkers = []string{"الغاء", "إلغاء"}
	monthPattern  = regexp.MustCompile(`شهر\s*([0-9]+)`)
)

// ExtractHistoricalChanges detects "was X, changed to Y" and cancellation
// patterns in a fee note. The two detections are independent; when both
// phrasings co-occur the explicit-change branch wins.
func ExtractHistoricalChanges(text string) model.HistoricalChange {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return model.HistoricalChange{}
	}

	normalized := Normalize(raw)
	nums := extractNumbers(normalized)

	if strings.Contains(raw, wasMarker) && containsAny(raw, changeMarkers...) {
		hc := model.HistoricalChange{
			HasChange:   true,
			Description: "Fee amount modified",
		}
		if len(nums) > 0 {
			hc.OriginalFee = nums[0]
		}
		if len(nums) > 1 {
			hc.NewFee = nums[1]
		}
		if m := monthPattern.FindStringSubmatch(normalized); m != nil {
			hc.ChangeDate = "Month " + m[1]
		}
		return hc
	}

	if containsAny(raw, cancelMarkers...) {
		hc := model.HistoricalChange{
			HasChange:   true,
			Description: "Fee cancelled",
		}
		if len(nums) > 0 {
			hc.OriginalFee = nums[0]
		}
		return hc
	}

	return model.HistoricalChange{}
}
