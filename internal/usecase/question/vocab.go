package question

// Token vocabularies used to pull candidate attributes out of free-text
// descriptions. The answer filter works off the same lists, so a question
// asked here is always answerable there.

// Kind buckets an attribute token for question phrasing.
type Kind string

const (
	KindColor     Kind = "color"
	KindMaterial  Kind = "material"
	KindSize      Kind = "size"
	KindFeature   Kind = "feature"
	KindBrand     Kind = "brand"
	KindCondition Kind = "condition"
	KindGeneric   Kind = "generic"
)

// Colors holds common color words.
var Colors = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange",
	"purple", "pink", "brown", "grey", "gray", "silver", "gold",
	"beige", "navy", "turquoise",
}

// Materials holds common material words.
var Materials = []string{
	"leather", "plastic", "metal", "fabric", "canvas", "nylon",
	"rubber", "wood", "glass", "ceramic", "suede", "denim", "wool",
	"cotton", "aluminum", "steel",
}

// Sizes holds size descriptors.
var Sizes = []string{
	"small", "medium", "large", "big", "tiny", "mini", "compact",
	"oversized", "xl", "xs",
}

// Features holds distinguishing item features.
var Features = []string{
	"zipper", "pocket", "strap", "handle", "wheels", "sticker",
	"keychain", "charm", "case", "cover", "screen", "button",
	"buckle", "lock", "hood", "logo", "pattern", "stripe",
	"sleeve", "holder", "compartment",
}

// Conditions holds condition descriptors.
var Conditions = []string{
	"new", "old", "used", "worn", "damaged", "scratched", "broken",
	"torn", "faded",
}

// Synonyms maps an attribute token to alternative phrasings that count as
// the same attribute when testing answer consistency.
var Synonyms = map[string][]string{
	"large":       {"big", "huge", "oversized", "xl"},
	"small":       {"little", "tiny", "mini", "compact", "xs"},
	"metal":       {"metallic", "steel", "aluminum", "aluminium"},
	"plastic":     {"synthetic", "polymer"},
	"waterproof":  {"water-resistant", "rainproof", "water resistant"},
	"wireless":    {"bluetooth", "cordless"},
	"zipper":      {"zip", "zipped", "zippered"},
	"strap":       {"band", "belt", "shoulder strap"},
	"new":         {"brand new", "unused", "mint"},
	"old":         {"used", "worn", "vintage"},
	"damaged":     {"broken", "cracked", "scratched", "torn"},
	"round":       {"circular", "spherical"},
	"square":      {"rectangular", "boxy"},
	"transparent": {"clear", "see-through"},
	"soft":        {"plush", "cushioned"},
	"hard":        {"rigid", "solid"},
}

// questionBanks holds domain-aware generic questions used when no single
// attribute splits the candidate set. Keyed by cue words found in the
// joined candidate descriptions.
var questionBanks = map[string][]string{
	"bag": {
		"Does your item have multiple compartments?",
		"Does your item have an adjustable shoulder strap?",
		"Was anything inside your item when you lost it?",
	},
	"electronics": {
		"Does your item have a protective case or cover?",
		"Was your item powered on when you lost it?",
		"Does your item have any stickers or engravings?",
	},
	"clothing": {
		"Does your item have a visible brand label?",
		"Does your item have a hood?",
		"Are there any stains or repairs on your item?",
	},
}

// bankCues maps description cue words to a question bank key.
var bankCues = map[string]string{
	"bag":      "bag",
	"backpack": "bag",
	"purse":    "bag",
	"suitcase": "bag",
	"wallet":   "bag",

	"phone":      "electronics",
	"laptop":     "electronics",
	"tablet":     "electronics",
	"headphones": "electronics",
	"charger":    "electronics",
	"camera":     "electronics",

	"jacket":  "clothing",
	"coat":    "clothing",
	"shirt":   "clothing",
	"sweater": "clothing",
	"scarf":   "clothing",
	"hat":     "clothing",
}

// genericQuestions is the last-resort bank when no domain cue matches.
var genericQuestions = []string{
	"Does your item have any unique marks or identifiers?",
	"Is there a name or initials anywhere on your item?",
	"Can you describe any detail not yet mentioned about your item?",
}
