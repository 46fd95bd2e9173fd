package gallery

import (
	"math/rand/v2"

	"github.com/gurudev-engicon/gallery-backend/pkg/enums"
)

// ContentPool holds the stock titles and descriptions used when an upload
// arrives without them.
type ContentPool struct {
	Titles       []string
	Descriptions []string
}

// DefaultContent is the stock copy per category.
var DefaultContent = map[enums.Category]ContentPool{
	enums.CategoryBuilding: {
		Titles: []string{
			"Government Building Project",
			"Police Station Construction",
			"Administrative Office Building",
			"Institutional Building",
			"Public Infrastructure Building",
		},
		Descriptions: []string{
			"Quality government building construction with modern design.",
			"Professional institutional building with structural excellence.",
			"Administrative office built to highest construction standards.",
		},
	},
	enums.CategoryHighway: {
		Titles: []string{
			"Highway Development Project",
			"National Highway Construction",
			"Expressway Development",
			"Highway Infrastructure",
			"Road Expansion Project",
		},
		Descriptions: []string{
			"Large-scale highway construction with modern engineering techniques.",
			"Building robust highway infrastructure for efficient transportation.",
			"State-of-the-art highway project ensuring safety and durability.",
		},
	},
	enums.CategoryFlyover: {
		Titles: []string{
			"Urban Flyover Project",
			"Elevated Road Structure",
			"City Flyover Development",
			"Grade Separator Construction",
			"Overpass Infrastructure",
		},
		Descriptions: []string{
			"Reducing traffic congestion with modern flyover construction.",
			"Advanced RCC flyover engineering for urban mobility.",
			"Elevated road structure designed for seamless city traffic flow.",
		},
	},
	enums.CategoryBridge: {
		Titles: []string{
			"River Bridge Project",
			"Concrete Bridge Construction",
			"Steel Bridge Development",
			"Railway Over Bridge",
			"Pedestrian Bridge",
		},
		Descriptions: []string{
			"Strong foundations and durable construction across water bodies.",
			"Engineering excellence in bridge construction and design.",
			"Long-lasting bridge infrastructure connecting communities.",
		},
	},
	enums.CategoryRoad: {
		Titles: []string{
			"Urban Road Project",
			"Rural Road Connectivity",
			"Smart Road Development",
			"Road Rehabilitation Project",
			"City Road Network",
		},
		Descriptions: []string{
			"Smart roads with proper drainage and safety features.",
			"Connecting communities with reliable road infrastructure.",
			"Modern road construction ensuring durability and safety.",
		},
	},
}

func pickFrom(items []string, intn func(int) int) string {
	if len(items) == 0 {
		return ""
	}
	return items[intn(len(items))]
}

func defaultIntn(n int) int { return rand.IntN(n) }
