package retrieve

// DefaultSynonyms maps common query vocabulary and abbreviations to the terms
// reports and articles tend to use instead. Multi-word entries contribute
// each of their words to the BM25 query.
var DefaultSynonyms = map[string][]string{
	// Abbreviations
	"co2": {"carbon dioxide", "emissions"},
	"ghg": {"greenhouse gas", "emissions"},
	"ev":  {"electric vehicle"},
	"evs": {"electric vehicles"},
	"pv":  {"photovoltaic", "solar"},
	"ai":  {"artificial intelligence"},
	"ml":  {"machine learning"},
	"llm": {"language model"},
	"gdp": {"economic output"},
	"un":  {"united nations"},
	"eu":  {"european union"},
	"us":  {"united states"},
	"uk":  {"united kingdom"},

	// Climate and energy
	"climate":    {"warming", "weather"},
	"warming":    {"climate", "temperature", "heating"},
	"emissions":  {"pollution", "co2", "carbon"},
	"pollution":  {"emissions", "contamination"},
	"renewable":  {"solar", "wind", "clean"},
	"renewables": {"solar", "wind", "clean"},
	"energy":     {"power", "electricity"},
	"power":      {"energy", "electricity"},
	"fossil":     {"coal", "oil", "gas"},
	"glacier":    {"ice", "glacial"},
	"ice":        {"glacier", "sea ice"},
	"ocean":      {"sea", "marine"},
	"sea":        {"ocean", "marine"},
	"drought":    {"dry", "water shortage"},
	"flood":      {"flooding", "inundation"},

	// Policy and economics
	"policy":     {"regulation", "law", "legislation"},
	"regulation": {"policy", "rule", "law"},
	"law":        {"legislation", "statute", "regulation"},
	"tax":        {"levy", "pricing"},
	"cost":       {"price", "expense"},
	"price":      {"cost", "pricing"},
	"subsidy":    {"incentive", "grant"},
	"subsidies":  {"incentives", "grants"},

	// Research vocabulary
	"study":    {"research", "paper", "analysis"},
	"research": {"study", "paper"},
	"paper":    {"study", "article"},
	"effect":   {"impact", "consequence"},
	"impact":   {"effect", "consequence"},
	"increase": {"rise", "growth"},
	"decrease": {"decline", "reduction"},
	"reduce":   {"cut", "lower"},
}
