package mapping

// defaultEntries is the curated production table. Keys are dealership ids.
// Keep entries sorted by dealership name so review diffs stay readable.
var defaultEntries = map[string]Entry{
	// Awarded Auto Group
	"0b4f9d2e-6a1c-4f3b-9e8d-2c7a5b1f4e6a": {
		GA4PropertyID:    "323480238",
		SearchConsoleURL: "https://www.awardedautogroup.com/",
	},
	// Crestview Motors
	"7c2e8a54-1d9f-4b6e-a3c1-8f5d2e9b7a40": {
		GA4PropertyID:    "351209467",
		SearchConsoleURL: "https://www.crestviewmotors.com/",
	},
	// Lakeside Chevrolet
	"e91b3f67-4a2d-48c5-b7e9-1d6f8a3c5e27": {
		GA4PropertyID:    "298754132",
		SearchConsoleURL: "https://www.lakesidechevy.com/",
	},
	// Northgate Ford (no Search Console verification yet)
	"5d8a1c39-7e4b-42f6-9a2d-c3b7e1f58d94": {
		GA4PropertyID: "312086549",
	},
	// Summit Hyundai (GA4 property pending transfer from previous vendor)
	"a36f7d21-9c5e-4b8a-d1f3-6e2b9c4a7f85": {
		SearchConsoleURL: "https://www.summithyundai.com/",
	},
}
