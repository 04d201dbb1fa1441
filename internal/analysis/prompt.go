package analysis

import (
	"fmt"
	"strings"

	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// BuildPrompt renders the analysis instruction for one track. The box is
// given as [top, left, bottom, right] in screen fractions.
func BuildPrompt(req tracking.AnalysisRequest, memories []Memory) string {
	b := req.Box
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyse the object inside the box [%.2f, %.2f, %.2f, %.2f].\n",
		b.Y, b.X, b.Y+b.H, b.X+b.W)
	fmt.Fprintf(&sb, "Probable class: %s.\n", req.Class)

	if len(memories) > 0 {
		sb.WriteString("\nMEMORY RECORDS FOUND:\n")
		for _, m := range memories {
			fmt.Fprintf(&sb, "- %s [%s]\n", m.Content, m.Type)
		}
		sb.WriteString("IF THE OBJECT MATCHES, USE THIS DATA.\n")
	}

	sb.WriteString("\nTASK: rename the label to something specific (for example 'PERSON' -> 'COURIER', " +
		"'CAR' -> 'PATROL VEHICLE') and add three words of visual description.\n")
	sb.WriteString("IF RECOGNISED FROM MEMORY, GIVE THE NAME.\n")
	sb.WriteString("\nRESPONSE FORMAT STRICTLY:\nLABEL | DESCRIPTION\n")
	return sb.String()
}
