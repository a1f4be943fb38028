package disambig

import (
	"fmt"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// systemPrompt frames every decision request.
const systemPrompt = "You are an expert historical geographer specializing in toponym disambiguation."

// nearbyNamePreviewCap bounds how many co-occurring names the prompt
// lists for one cluster.
const nearbyNamePreviewCap = 15

// formatInstruction is the closing directive the retry path tightens.
const formatInstruction = "Return ONLY the JSON"

// strictFormatInstruction replaces formatInstruction after a parse
// failure.
const strictFormatInstruction = "Return ONLY valid JSON with no markdown formatting, no backticks, no explanation"

// promptInput carries everything the decision prompt needs.
type promptInput struct {
	Toponym           string
	Contexts          []model.Occurrence
	Candidates        []model.Candidate
	NearbyNames       []string
	SourceLocation    *model.SourceLocation
	ClusterConfidence model.Confidence
}

// buildPrompt constructs the decision request. Feature types are
// expanded into explicit labels so the model does not resolve
// "Seattle, Washington" to the Washington state centroid.
func buildPrompt(in promptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are disambiguating the place name %q mentioned in a historical document.\n\n", in.Toponym)

	if in.SourceLocation != nil && in.SourceLocation.City != "" && in.SourceLocation.State != "" {
		fmt.Fprintf(&b, "SOURCE LOCATION: This place name appears in media from %s, %s.\n", in.SourceLocation.City, in.SourceLocation.State)
		b.WriteString("Consider geographic proximity to the source location when selecting among candidates.\n\n")
	}

	b.WriteString("CONTEXTS (multiple uses in document):\n\n")
	for i, ctx := range in.Contexts {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, ctx.Text)
	}

	if len(in.NearbyNames) > 0 {
		preview := in.NearbyNames
		if len(preview) > nearbyNamePreviewCap {
			preview = preview[:nearbyNamePreviewCap]
		}
		b.WriteString("NEARBY LOCATIONS (mentioned in same contexts):\n")
		b.WriteString(strings.Join(preview, ", "))
		b.WriteString("\n\nThese co-occurring locations suggest the geographic region being discussed.\n\n")
	}

	switch in.ClusterConfidence {
	case model.ConfidenceHigh:
		b.WriteString("Note: All contexts show strong geographic coherence (likely single referent).\n\n")
	case model.ConfidenceMedium:
		b.WriteString("Note: Moderate geographic coherence detected in contexts.\n\n")
	default:
		b.WriteString("Note: Low geographic coherence - contexts may refer to different places with same name.\n\n")
	}

	b.WriteString("CANDIDATE LOCATIONS:\n\n")
	for _, cand := range in.Candidates {
		fmt.Fprintf(&b, "ID: %s\n", cand.ID)
		fmt.Fprintf(&b, "Name: %s\n", cand.Title)
		if cand.FeatureClass != "" {
			fmt.Fprintf(&b, "TYPE: %s\n", FeatureLabel(cand.FeatureClass, cand.FeatureCode))
		}
		fmt.Fprintf(&b, "Location: %s, %s\n", orNA(cand.Admin1), orNA(cand.Country))
		if cand.Lat != 0 || cand.Lon != 0 {
			fmt.Fprintf(&b, "Coordinates: %g, %g\n", cand.Lat, cand.Lon)
		}
		if cand.Population > 0 {
			fmt.Fprintf(&b, "Population: %d\n", cand.Population)
		}
		b.WriteString("\n")
	}

	b.WriteString(`CRITICAL DISAMBIGUATION RULES (PRECISION-FIRST APPROACH):

PRIORITY: AVOID FALSE POSITIVES.
False positives (wrong locations) are worse than false negatives (no answer).
When in doubt, return null rather than guess incorrectly.

1. HIERARCHICAL LOCATION PARSING:
   - If context says "in [City], [State]" -> SELECT THE CITY, not the state
   - If context says "in [City], [Country]" -> SELECT THE CITY, not the country
   - "Seattle, Washington" -> select Seattle (CITY/TOWN), NOT Washington (STATE)
   - "native of Pennsylvania" -> a state is appropriate here (no specific city)

2. FEATURE TYPE PRIORITY:
   - CITY/TOWN is MORE SPECIFIC than STATE or COUNTRY
   - When context implies a specific location, prefer CITY/TOWN > COUNTY > STATE > COUNTRY
   - Only choose broader types when context genuinely refers to the whole region

3. AVOID STATE/COUNTRY CENTROIDS:
   - "Seattle, Washington" should NOT select Washington state
   - If context mentions an EVENT (concert, conference, meeting) in a COUNTRY,
     prefer the capital city over the country centroid, or return null if no
     capital is among the candidates

4. GEOGRAPHIC COHERENCE REQUIREMENT:
   - Use nearby locations to VALIDATE your selection, not just inform it
   - If nearby locations conflict with your selection, return null
   - Example: if selecting "London, UK" but all nearby locations are Canadian, return null

5. CONFIDENCE THRESHOLD:
   - Only select a candidate if you have STRONG evidence from context
   - Weak signals (vague context, no nearby locations, ambiguous references) -> return null
   - Better to miss an answer than to be wrong

TASK: Select the most likely candidate with HIGH CONFIDENCE, or null if any doubt exists.

`)

	fmt.Fprintf(&b, `%s object with:
{
  "selected_id": <candidate_id or null>,
  "confidence": "<high/medium/low>",
  "reasoning": "<explanation of which rule applied and why you are confident>"
}
`, formatInstruction)

	return b.String()
}

// stricterPrompt tightens the format instruction after a parse failure.
func stricterPrompt(prompt string) string {
	return strings.Replace(prompt, formatInstruction, strictFormatInstruction, 1)
}

// FeatureLabel expands a GeoNames feature class/code pair into an
// unambiguous human-readable label. The table exists to keep the
// reasoning service from confusing an administrative-region centroid
// with a specific settlement.
func FeatureLabel(featureClass, featureCode string) string {
	switch featureClass {
	case "P":
		switch featureCode {
		case "PPL", "PPLA", "PPLA2", "PPLA3", "PPLA4":
			return "CITY/TOWN (populated place)"
		case "PPLC":
			return "CAPITAL CITY (national capital)"
		default:
			return "POPULATED PLACE (city/town/village)"
		}
	case "A":
		switch featureCode {
		case "ADM1":
			return "STATE/PROVINCE (first-level administrative division)"
		case "ADM2":
			return "COUNTY/DISTRICT (second-level administrative division)"
		case "PCLI":
			return "COUNTRY (independent political entity)"
		case "ADMD":
			return "ADMINISTRATIVE DIVISION"
		default:
			return "ADMINISTRATIVE AREA"
		}
	case "H":
		return "WATER FEATURE (river, lake, ocean, etc.)"
	case "T":
		return "TERRAIN FEATURE (mountain, valley, etc.)"
	case "L":
		return "LANDSCAPE/REGION (park, forest, etc.)"
	case "S":
		return "STRUCTURE/FACILITY (building, monument, etc.)"
	default:
		return fmt.Sprintf("%s (see GeoNames classification)", featureClass)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
