package safety

// Static interaction and safety rule tables. Loaded once at process start,
// read-only afterwards, safe to share across concurrent evaluations.
//
// Keywords are matched as case-insensitive substrings against free-text
// ingredient and medication names. That trades occasional false positives
// for never missing a qualified name ("iron bisglycinate", "warfarin 5mg
// extended-release"), which is the right bias for this domain.

// Disclaimer closes every non-empty warning set. It is appended after
// deduplication and always appears exactly once, last.
const Disclaimer = "These automated warnings are informational only. Review this formula with a clinician or pharmacist before use."

// highRiskIngredients fire on the ingredient alone, with or without a
// medication list.
var highRiskIngredients = map[string]string{
	"iron":           "Iron can cause digestive upset and is dangerous in overdose; confirm a diagnosed deficiency before supplementing.",
	"vitamin k":      "Vitamin K alters blood clotting and affects anticoagulant therapy.",
	"st. john":       "St. John's Wort induces liver enzymes and reduces the effectiveness of many prescription drugs.",
	"st john":        "St. John's Wort induces liver enzymes and reduces the effectiveness of many prescription drugs.",
	"ginkgo":         "Ginkgo biloba increases bleeding risk.",
	"kava":           "Kava has been associated with liver injury.",
	"yohimbe":        "Yohimbe can cause dangerous blood pressure changes and heart rhythm problems.",
	"ephedra":        "Ephedra is associated with serious cardiovascular events and is banned in many countries.",
	"comfrey":        "Comfrey contains pyrrolizidine alkaloids that are toxic to the liver.",
	"red yeast rice": "Red yeast rice contains naturally occurring statins and can cause muscle and liver side effects.",
}

// medicationInteractions maps ingredient keyword -> medication keyword ->
// warning text.
var medicationInteractions = map[string]map[string]string{
	"vitamin k": {
		"warfarin": "Vitamin K directly counteracts warfarin and can destabilize INR.",
		"coumadin": "Vitamin K directly counteracts warfarin (Coumadin) and can destabilize INR.",
	},
	"garlic": {
		"warfarin": "Garlic increases bleeding risk when combined with warfarin.",
		"aspirin":  "Garlic adds to the antiplatelet effect of aspirin.",
	},
	"ginkgo": {
		"warfarin": "Ginkgo increases bleeding risk when combined with warfarin.",
		"aspirin":  "Ginkgo adds to the antiplatelet effect of aspirin.",
		"ssri":     "Ginkgo may interact with SSRIs and increase serotonergic side effects.",
	},
	"fish oil": {
		"warfarin": "High-dose fish oil can add to the anticoagulant effect of warfarin.",
	},
	"omega-3": {
		"warfarin": "High-dose omega-3 fatty acids can add to the anticoagulant effect of warfarin.",
	},
	"st. john": {
		"ssri":          "St. John's Wort combined with SSRIs risks serotonin syndrome.",
		"sertraline":    "St. John's Wort combined with sertraline risks serotonin syndrome.",
		"fluoxetine":    "St. John's Wort combined with fluoxetine risks serotonin syndrome.",
		"birth control": "St. John's Wort reduces the effectiveness of hormonal contraceptives.",
		"warfarin":      "St. John's Wort reduces the effectiveness of warfarin.",
	},
	"5-htp": {
		"ssri":       "5-HTP combined with SSRIs risks serotonin syndrome.",
		"sertraline": "5-HTP combined with sertraline risks serotonin syndrome.",
	},
	"iron": {
		"levothyroxine": "Iron blocks levothyroxine absorption; separate doses by at least 4 hours.",
		"synthroid":     "Iron blocks levothyroxine (Synthroid) absorption; separate doses by at least 4 hours.",
	},
	"calcium": {
		"levothyroxine": "Calcium blocks levothyroxine absorption; separate doses by at least 4 hours.",
		"synthroid":     "Calcium blocks levothyroxine (Synthroid) absorption; separate doses by at least 4 hours.",
	},
	"magnesium": {
		"levothyroxine": "Magnesium can reduce levothyroxine absorption; separate doses.",
	},
	"licorice": {
		"lisinopril": "Licorice raises blood pressure and works against antihypertensives such as lisinopril.",
		"amlodipine": "Licorice raises blood pressure and works against antihypertensives such as amlodipine.",
	},
	"potassium": {
		"lisinopril": "Potassium supplements with ACE inhibitors such as lisinopril risk hyperkalemia.",
	},
	"berberine": {
		"metformin": "Berberine adds to the glucose-lowering effect of metformin; monitor for hypoglycemia.",
	},
	"chromium": {
		"metformin": "Chromium adds to the glucose-lowering effect of metformin; monitor blood sugar.",
		"insulin":   "Chromium adds to the glucose-lowering effect of insulin; monitor blood sugar.",
	},
	"red yeast rice": {
		"statin":       "Red yeast rice stacks statin exposure and raises the risk of muscle injury.",
		"atorvastatin": "Red yeast rice stacks statin exposure on top of atorvastatin and raises the risk of muscle injury.",
		"simvastatin":  "Red yeast rice stacks statin exposure on top of simvastatin and raises the risk of muscle injury.",
	},
	"niacin": {
		"statin":       "High-dose niacin with statins increases the risk of muscle injury.",
		"atorvastatin": "High-dose niacin with atorvastatin increases the risk of muscle injury.",
	},
	"kava": {
		"benzodiazepine": "Kava adds to benzodiazepine sedation.",
		"alprazolam":     "Kava adds to alprazolam (Xanax) sedation.",
		"xanax":          "Kava adds to alprazolam (Xanax) sedation.",
	},
	"valerian": {
		"benzodiazepine": "Valerian adds to benzodiazepine sedation.",
		"zolpidem":       "Valerian adds to zolpidem sedation.",
	},
	"melatonin": {
		"zolpidem": "Melatonin adds to zolpidem sedation.",
	},
	"ginseng": {
		"warfarin": "Ginseng may reduce the effectiveness of warfarin.",
		"maoi":     "Ginseng with MAOIs can cause agitation and insomnia.",
	},
}

// pairConflict is a set of ingredient keywords that conflict whenever two
// or more of its members appear in the same formula.
type pairConflict struct {
	keywords []string
	warning  string
}

var pairConflicts = []pairConflict{
	{
		keywords: []string{"iron", "calcium"},
		warning:  "Iron and calcium compete for absorption; take them at different times of day.",
	},
	{
		keywords: []string{"zinc", "copper"},
		warning:  "Long-term zinc supplementation depletes copper; the combination needs balanced dosing.",
	},
	{
		keywords: []string{"zinc", "iron"},
		warning:  "Zinc and iron compete for absorption at high doses; separate them.",
	},
	{
		keywords: []string{"st. john", "5-htp"},
		warning:  "Stacking St. John's Wort with 5-HTP raises serotonin levels on two fronts; this combination risks serotonin syndrome.",
	},
	{
		keywords: []string{"ginkgo", "garlic", "fish oil", "vitamin e"},
		warning:  "Multiple blood-thinning ingredients in one formula compound bleeding risk.",
	},
}
