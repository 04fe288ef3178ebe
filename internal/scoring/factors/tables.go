package factors

import "strings"

// Fixed industry/sector lookup tables. Dynamic dispatch and duck typing are
// modeled as plain maps from industry name to score, per SPEC_FULL.md's
// design note — never as a class hierarchy.

var preciousMetalsIndustries = map[string]bool{
	"Gold Mining":               true,
	"Silver Mining":             true,
	"Precious Metals":           true,
	"Precious Metals Royalties": true,
}

const royaltyStreamingIndustry = "Precious Metals Royalties"

// commodityBase is the base commodities score by industry, defaulting to 30
// for any industry not present in the table.
var commodityBase = map[string]int{
	"Oil & Gas E&P":         85,
	"Oil & Gas Integrated":  80,
	"Copper Mining":         85,
	"Diversified Mining":    75,
	"Agricultural Products": 70,
	"Steel":                 65,
	"Chemicals":             55,
}

const defaultCommodityBase = 30

// essentialServices is the fixed essential_services lookup, defaulting to
// 40 for unlisted industries.
var essentialServices = map[string]int{
	"Electric Utilities":     95,
	"Water Utilities":        95,
	"Gas Utilities":          90,
	"Healthcare Facilities":  90,
	"Pharmaceuticals":        85,
	"Food Products":          85,
	"Food Retail":            80,
	"Household Products":     75,
	"Waste Management":       75,
	"Telecom":                70,
	"Defense":                70,
	"Insurance":              40,
	"Banks":                  35,
	"Asset Management":       30,
	"Software":               25,
	"Consumer Discretionary": 20,
}

const defaultEssentialServices = 40

func isPreciousMetalsIndustry(industry string) bool {
	return preciousMetalsIndustries[industry]
}

func isRoyaltyStreaming(industry string) bool {
	return industry == royaltyStreamingIndustry
}

func isREITOrRealEstate(industry string) bool {
	return industry == "REITs" || industry == "Real Estate"
}

func containsMining(industry string) bool {
	return strings.Contains(industry, "Mining")
}

func commodityBaseFor(industry string) int {
	if v, ok := commodityBase[industry]; ok {
		return v
	}
	return defaultCommodityBase
}

func essentialServicesFor(industry string) int {
	if v, ok := essentialServices[industry]; ok {
		return v
	}
	return defaultEssentialServices
}
