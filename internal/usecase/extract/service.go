package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Extraction is the structured view of an item description.
type Extraction struct {
	AIDescription string
	Category      string
	Subcategory   string
	Attributes    map[string]string
	Keywords      []string
	Synonyms      []string
}

// Service turns raw item descriptions into structured extractions using a
// generative model. Extraction never fails hard: when the model is
// unavailable or returns garbage, a lexical fallback is used instead.
type Service struct {
	oracle Oracle
	logger *zap.Logger
}

// New creates an extraction service.
func New(oracle Oracle, logger *zap.Logger) *Service {
	return &Service{oracle: oracle, logger: logger}
}

const promptTemplate = `Analyze this found/lost item description and extract structured information.
Return a JSON object with these fields:

{
    "ai_description": "Enhanced description with standardized terms (30-50 words)",
    "category": "main category (clothing/electronics/accessories/documents/jewelry/bags/keys/other)",
    "subcategory": "specific type (jacket/phone/wallet/keys/backpack/etc)",
    "attributes": {
        "color": "primary color if mentioned",
        "material": "material if mentioned (leather/fabric/plastic/metal)",
        "brand": "brand if visible/mentioned",
        "size": "size if mentioned (small/medium/large/XL or specific)",
        "condition": "condition if mentioned (new/used/worn/damaged)"
    },
    "keywords": ["list", "of", "important", "searchable", "keywords"],
    "synonyms": ["alternative", "terms", "that", "might", "match", "this", "item"]
}

Original description: %s

IMPORTANT RULES:
- Use standardized terms (e.g., "rain jacket" -> "waterproof jacket")
- Include common synonyms that users might search for
- For jackets: include terms like "coat", "windbreaker", "rain jacket", "waterproof jacket"
- Extract all visible attributes, but only if clearly mentioned
- Only return valid JSON, no extra text
- Be generous with synonyms to help matching

Examples of good synonyms:
- jacket -> ["coat", "windbreaker", "outerwear", "rain jacket"]
- phone -> ["mobile", "smartphone", "cell phone", "iPhone", "Android"]
- keys -> ["keychain", "car keys", "house keys", "key ring"]
- wallet -> ["purse", "billfold", "card holder"]`

// extractionDoc mirrors the JSON shape we ask the model for.
type extractionDoc struct {
	AIDescription string            `json:"ai_description"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory"`
	Attributes    map[string]string `json:"attributes"`
	Keywords      []string          `json:"keywords"`
	Synonyms      []string          `json:"synonyms"`
}

// Extract produces a structured extraction for a raw description.
// Model failures and unparseable output degrade to a lexical fallback,
// so the returned Extraction is always usable.
func (s *Service) Extract(ctx context.Context, rawDescription string) Extraction {
	result, err := s.oracle.Generate(ctx, fmt.Sprintf(promptTemplate, rawDescription))
	if err != nil {
		s.logger.Warn("Extraction model failed, using lexical fallback",
			zap.Error(err),
		)
		return fallback(rawDescription)
	}

	ext, err := parseExtraction(result.Text, rawDescription)
	if err != nil {
		s.logger.Warn("Extraction output unparseable, using lexical fallback",
			zap.String("output_head", head(result.Text, 120)),
			zap.Error(err),
		)
		return fallback(rawDescription)
	}

	s.logger.Debug("Extraction completed",
		zap.String("category", ext.Category),
		zap.String("subcategory", ext.Subcategory),
		zap.Int("keywords", len(ext.Keywords)),
		zap.Int("synonyms", len(ext.Synonyms)),
	)

	return ext
}

// parseExtraction pulls the first balanced JSON object out of the model
// output and fills missing fields with defaults. Models routinely wrap the
// object in prose or markdown fences.
func parseExtraction(output, rawDescription string) (Extraction, error) {
	raw, err := firstJSONObject(output)
	if err != nil {
		return Extraction{}, err
	}

	var doc extractionDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Extraction{}, fmt.Errorf("decode extraction: %w", err)
	}

	ext := Extraction{
		AIDescription: strings.TrimSpace(doc.AIDescription),
		Category:      strings.ToLower(strings.TrimSpace(doc.Category)),
		Subcategory:   strings.ToLower(strings.TrimSpace(doc.Subcategory)),
		Attributes:    make(map[string]string, len(doc.Attributes)),
		Keywords:      cleanList(doc.Keywords),
		Synonyms:      cleanList(doc.Synonyms),
	}
	for k, v := range doc.Attributes {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		if k != "" && v != "" {
			ext.Attributes[k] = v
		}
	}

	if ext.AIDescription == "" {
		ext.AIDescription = rawDescription
	}
	if ext.Category == "" {
		ext.Category = "other"
	}
	if ext.Subcategory == "" {
		ext.Subcategory = "unknown"
	}
	if len(ext.Keywords) == 0 {
		ext.Keywords = strings.Fields(strings.ToLower(rawDescription))
	}
	if ext.Synonyms == nil {
		ext.Synonyms = []string{}
	}

	return ext, nil
}

// fallback is the extraction used when the model cannot help: the raw text
// stands in for the description and keywords are a plain word split.
func fallback(rawDescription string) Extraction {
	return Extraction{
		AIDescription: rawDescription,
		Category:      "other",
		Subcategory:   "unknown",
		Attributes:    map[string]string{},
		Keywords:      strings.Fields(strings.ToLower(rawDescription)),
		Synonyms:      []string{},
	}
}

// firstJSONObject returns the first balanced {...} block in s,
// ignoring braces inside JSON strings.
func firstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in output")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
