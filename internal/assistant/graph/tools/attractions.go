package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type AttractionGuideInput struct {
	City  string `json:"city"`
	Limit int    `json:"limit,omitempty"`
}

type Attraction struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Note string `json:"note"`
}

type AttractionGuideOutput struct {
	Result
	City        string       `json:"city,omitempty"`
	Attractions []Attraction `json:"attractions,omitempty"`
}

func createAttractionGuideTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolAttractionGuide,
			Desc: "List well-known sights and activities for a city: landmarks, museums, neighborhoods and day trips, each with a short practical note.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"city": {
					Type:     "string",
					Desc:     "City name, e.g. Rome.",
					Required: true,
				},
				"limit": {
					Type: "number",
					Desc: "Maximum number of attractions to return (default 5).",
				},
			}),
		},
		func(ctx context.Context, in *AttractionGuideInput) (*AttractionGuideOutput, error) {
			city := strings.TrimSpace(in.City)
			if city == "" {
				return nil, fmt.Errorf("city is required")
			}
			limit := in.Limit
			if limit <= 0 {
				limit = 5
			}

			list, ok := attractionCatalog[strings.ToLower(city)]
			if !ok {
				return &AttractionGuideOutput{Result: Result{Reason: reasonNotFound}}, nil
			}
			if len(list) > limit {
				list = list[:limit]
			}
			return &AttractionGuideOutput{
				Result:      Result{OK: true},
				City:        city,
				Attractions: list,
			}, nil
		},
	)
}

var attractionCatalog = map[string][]Attraction{
	"paris": {
		{Name: "Louvre", Kind: "museum", Note: "book a timed slot; Wednesday and Friday evenings are quietest"},
		{Name: "Eiffel Tower", Kind: "landmark", Note: "summit tickets sell out days ahead in summer"},
		{Name: "Montmartre", Kind: "neighborhood", Note: "go early morning for the Sacre-Coeur steps without crowds"},
		{Name: "Musee d'Orsay", Kind: "museum", Note: "impressionist collection; smaller and calmer than the Louvre"},
		{Name: "Versailles", Kind: "day trip", Note: "40 minutes by RER C; gardens are free on weekdays off-season"},
	},
	"tokyo": {
		{Name: "Senso-ji", Kind: "landmark", Note: "Asakusa's temple gate; arrive before 9am to beat tour groups"},
		{Name: "Meiji Shrine", Kind: "landmark", Note: "forested shrine next to Harajuku station"},
		{Name: "teamLab Planets", Kind: "museum", Note: "timed tickets only; barefoot exhibits, plan an hour and a half"},
		{Name: "Tsukiji Outer Market", Kind: "food", Note: "breakfast sushi and knife shops; most stalls close by 2pm"},
		{Name: "Shibuya Crossing", Kind: "neighborhood", Note: "best viewed from the Shibuya Sky deck at dusk"},
	},
	"london": {
		{Name: "British Museum", Kind: "museum", Note: "free entry; the Rosetta Stone room is busiest at midday"},
		{Name: "Tower of London", Kind: "landmark", Note: "join a Yeoman Warder tour, included with the ticket"},
		{Name: "Borough Market", Kind: "food", Note: "full stalls Wednesday to Saturday"},
		{Name: "Greenwich", Kind: "day trip", Note: "take the riverboat down, stand on the meridian line"},
	},
	"rome": {
		{Name: "Colosseum", Kind: "landmark", Note: "combined ticket covers the Forum and Palatine Hill"},
		{Name: "Vatican Museums", Kind: "museum", Note: "Friday night openings in summer skip the worst queues"},
		{Name: "Trastevere", Kind: "neighborhood", Note: "cross the river for dinner; lively after 8pm"},
		{Name: "Pantheon", Kind: "landmark", Note: "free entry; the dome oculus is best in late-morning light"},
	},
	"bangkok": {
		{Name: "Grand Palace", Kind: "landmark", Note: "strict dress code; cover shoulders and knees"},
		{Name: "Wat Arun", Kind: "landmark", Note: "cross by ferry from Tha Tien pier; prettiest at sunset"},
		{Name: "Chatuchak Market", Kind: "market", Note: "weekends only, 15,000 stalls; go before noon heat"},
		{Name: "Jim Thompson House", Kind: "museum", Note: "teak houses and silk history in central Bangkok"},
	},
	"new york": {
		{Name: "Metropolitan Museum of Art", Kind: "museum", Note: "pay-what-you-wish for New York State residents only"},
		{Name: "Central Park", Kind: "park", Note: "rent bikes at Columbus Circle; the Ramble is quietest"},
		{Name: "High Line", Kind: "park", Note: "elevated rail path from Gansevoort to 34th Street"},
		{Name: "Statue of Liberty", Kind: "landmark", Note: "crown access requires booking weeks ahead"},
	},
	"kyoto": {
		{Name: "Fushimi Inari", Kind: "landmark", Note: "thousands of torii gates; hike before 8am or after dark"},
		{Name: "Kinkaku-ji", Kind: "landmark", Note: "the golden pavilion; best light mid-morning"},
		{Name: "Arashiyama", Kind: "neighborhood", Note: "bamboo grove plus the Togetsukyo bridge; rent a bike"},
		{Name: "Nishiki Market", Kind: "food", Note: "covered food street; most stalls close around 5pm"},
	},
	"lisbon": {
		{Name: "Belem Tower", Kind: "landmark", Note: "pair with the Jeronimos Monastery and a pastel de nata"},
		{Name: "Alfama", Kind: "neighborhood", Note: "ride tram 28 up, walk down through the miradouros"},
		{Name: "LX Factory", Kind: "neighborhood", Note: "converted factories under the bridge; Sunday market"},
		{Name: "Sintra", Kind: "day trip", Note: "40 minutes by train; Pena Palace tickets are timed"},
	},
	"barcelona": {
		{Name: "Sagrada Familia", Kind: "landmark", Note: "buy tower tickets online; nave light is best mid-afternoon"},
		{Name: "Park Guell", Kind: "park", Note: "the monumental zone is ticketed; go at opening"},
		{Name: "Gothic Quarter", Kind: "neighborhood", Note: "wander between the cathedral and Placa Reial"},
		{Name: "La Boqueria", Kind: "food", Note: "stand-up counters at the back beat the front stalls"},
	},
}
