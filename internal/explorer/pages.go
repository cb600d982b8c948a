package explorer

import (
	"strings"

	"github.com/1broseidon/devdash-mcp/internal/fault"
)

// Pages are the component pages the explorer can show.
var Pages = []string{
	"Welcome",
	"GaugeArc",
	"GaugeBezel",
	"GaugeCenterCap",
	"GaugeFace",
	"GaugeTick",
	"GaugeTickLabel",
	"Bezel3D",
	"CenterCap3D",
	"DigitalReadout",
	"GaugeNeedle",
	"GaugeTickRing",
	"GaugeValueArc",
	"GaugeZoneArc",
	"RollingDigitReadout",
	"RadialGauge",
	"RadialGauge3D",
}

// ValidatePage returns an InvalidInput error naming the valid pages when
// page is not one of Pages. Matching is case-sensitive.
func ValidatePage(page string) error {
	for _, p := range Pages {
		if p == page {
			return nil
		}
	}
	return fault.New(fault.InvalidInput, "invalid page %q; valid pages: %s", page, strings.Join(Pages, ", "))
}
