package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	chromem "github.com/philippgille/chromem-go"
)

type TravelAdvisoryInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type AdvisoryNotice struct {
	Topic      string  `json:"topic"`
	Region     string  `json:"region"`
	Summary    string  `json:"summary"`
	Similarity float32 `json:"similarity"`
}

type TravelAdvisoryOutput struct {
	Result
	Notices []AdvisoryNotice `json:"notices,omitempty"`
}

// createTravelAdvisoryTool seeds an in-memory vector collection with entry,
// visa and seasonal-risk notices and answers semantic lookups against it.
func createTravelAdvisoryTool(ctx context.Context) (tool.BaseTool, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection("travel-advisories", nil, tokenHashEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create advisory collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(advisoryNotices))
	for i, n := range advisoryNotices {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("adv-%03d", i+1),
			Content: n.Summary,
			Metadata: map[string]string{
				"topic":  n.Topic,
				"region": n.Region,
			},
		})
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("seed advisory collection: %w", err)
	}

	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolTravelAdvisory,
			Desc: "Search travel advisories: visa and entry rules, seasonal risks and health notes. Query with a region or topic, e.g. 'entry requirements Japan'.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text advisory query, e.g. 'visa rules for Thailand'.",
					Required: true,
				},
				"limit": {
					Type: "number",
					Desc: "Maximum number of notices to return (default 2).",
				},
			}),
		},
		func(ctx context.Context, in *TravelAdvisoryInput) (*TravelAdvisoryOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			limit := in.Limit
			if limit <= 0 {
				limit = 2
			}
			// chromem requires nResults <= collection size.
			if count := col.Count(); count == 0 {
				return &TravelAdvisoryOutput{Result: Result{Reason: reasonNotFound}}, nil
			} else if limit > count {
				limit = count
			}

			results, err := col.Query(ctx, query, limit, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("advisory query: %w", err)
			}
			if len(results) == 0 {
				return &TravelAdvisoryOutput{Result: Result{Reason: reasonNotFound}}, nil
			}

			notices := make([]AdvisoryNotice, 0, len(results))
			for _, r := range results {
				notices = append(notices, AdvisoryNotice{
					Topic:      r.Metadata["topic"],
					Region:     r.Metadata["region"],
					Summary:    r.Content,
					Similarity: r.Similarity,
				})
			}
			return &TravelAdvisoryOutput{Result: Result{OK: true}, Notices: notices}, nil
		},
	), nil
}

const advisoryEmbeddingDim = 128

// tokenHashEmbedding is a deterministic bag-of-words embedding: each token
// hashes into one of the dimensions and the vector is L2-normalized. No
// network, stable across runs, good enough for a small advisory corpus.
func tokenHashEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, advisoryEmbeddingDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%advisoryEmbeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, nil
}

type advisoryEntry struct {
	Topic   string
	Region  string
	Summary string
}

var advisoryNotices = []advisoryEntry{
	{Topic: "entry", Region: "Schengen Area", Summary: "Schengen Area entry: most visa-waiver nationals may stay 90 days within any 180-day period across all member states combined. The ETIAS travel authorization is being phased in for visa-exempt visitors."},
	{Topic: "entry", Region: "Japan", Summary: "Japan entry: citizens of most Western countries get a 90-day visa waiver stamp on arrival. Proof of onward travel can be requested. Visit Japan Web pre-registration speeds up immigration."},
	{Topic: "entry", Region: "Thailand", Summary: "Thailand entry: many nationalities receive a 60-day visa exemption on arrival by air. Extensions of 30 days are available at immigration offices for a fee."},
	{Topic: "entry", Region: "United States", Summary: "United States entry: Visa Waiver Program travelers need an approved ESTA before boarding; apply at least 72 hours before departure. Stays are capped at 90 days."},
	{Topic: "entry", Region: "United Kingdom", Summary: "United Kingdom entry: visa-exempt visitors now need an Electronic Travel Authorisation (ETA) before travel. It is valid for two years and multiple visits."},
	{Topic: "entry", Region: "Australia", Summary: "Australia entry: all visitors need a visa or an Electronic Travel Authority (subclass 601) arranged before departure; the app-based ETA is typically issued within a day."},
	{Topic: "seasonal", Region: "Caribbean", Summary: "Caribbean hurricane season runs June through November, peaking August to October. Travel insurance with weather-disruption cover is strongly recommended in those months."},
	{Topic: "seasonal", Region: "Southeast Asia", Summary: "Southeast Asia monsoon: the southwest monsoon brings heavy rain to Thailand's Andaman coast and much of Indochina roughly May through October; the Gulf coast stays drier until the autumn."},
	{Topic: "seasonal", Region: "Iceland", Summary: "Iceland winter driving: highland F-roads close from roughly October to June, and winter storms shut sections of the Ring Road at short notice. Check road.is before every driving day."},
	{Topic: "health", Region: "Brazil", Summary: "Brazil health note: yellow fever vaccination is recommended for most of the country including Iguacu Falls, ideally ten days before arrival. Some onward destinations require the certificate."},
	{Topic: "culture", Region: "Morocco", Summary: "Morocco during Ramadan: many restaurants close in daylight hours and opening times shift; tourist areas remain serviceable. Evenings are lively after iftar."},
	{Topic: "entry", Region: "Brazil", Summary: "Brazil entry: visa-exempt stays are limited to 90 days, extendable once by the Federal Police. A return or onward ticket is commonly checked at boarding."},
}
