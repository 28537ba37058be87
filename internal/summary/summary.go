// Package summary canonicalizes stock summary payloads. Providers return the
// same facts under different keys (Alpha Vantage "MarketCapitalization", IEX
// "marketcap", scraped labels); lookups normalize onto one key set so callers
// never branch on which source answered.
package summary

// aliasMap maps provider-specific field names onto the canonical keys.
// Canonical keys follow the IEX stats naming.
var aliasMap = map[string]string{
	// Alpha Vantage OVERVIEW
	"Name":                  "companyName",
	"Symbol":                "symbol",
	"MarketCapitalization":  "marketcap",
	"52WeekHigh":            "week52high",
	"52WeekLow":             "week52low",
	"SharesOutstanding":     "sharesOutstanding",
	"SharesFloat":           "float",
	"50DayMovingAverage":    "day50MovingAvg",
	"200DayMovingAverage":   "day200MovingAvg",
	"FullTimeEmployees":     "employees",
	"EPS":                   "ttmEPS",
	"DividendYield":         "dividendYield",
	"DividendPerShare":      "dividendPerShare",
	"PERatio":               "peRatio",
	"Beta":                  "beta",
	"Description":           "description",
	"Exchange":              "exchange",
	"Sector":                "sector",
	"Industry":              "industry",

	// Scraped label forms that the scraper does not already canonicalize
	"shortName":         "companyName",
	"longName":          "companyName",
	"regularMarketPrice": "latestPrice",
}

// Normalize returns a copy of body with known provider-specific keys renamed
// to their canonical form. Unknown keys pass through untouched. A canonical
// key already present in the input is never overwritten by an alias.
func Normalize(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		if _, aliased := aliasMap[k]; !aliased {
			out[k] = v
		}
	}
	for k, v := range body {
		canonical, aliased := aliasMap[k]
		if !aliased {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}
