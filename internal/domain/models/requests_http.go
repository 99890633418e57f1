package models

// Requests for the analytics HTTP endpoints and the Kafka request topic.

type RiskConeRequest struct {
	Pair        string    `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	PricingDate string    `query:"pricing_date" json:"pricing_date" validate:"omitempty,datetime=2006-01-02"`
	End         string    `query:"end" json:"end" validate:"omitempty,oneof=3m 6m 9m 1y 2y"`
	EndDate     string    `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Tenors      []string  `query:"tenors" json:"tenors" validate:"omitempty,dive,oneof=3m 6m 9m 1y 2y"`
	Percentiles []float64 `query:"percentiles" json:"percentiles" validate:"omitempty,max=10,dive,gt=0,lt=1"`
	Frequency   string    `query:"frequency" json:"frequency" validate:"omitempty,oneof=B W-MON W-TUE W-WED W-THU W-FRI BM"`
	Precision   int       `query:"precision" json:"precision" default:"4" validate:"gte=0,lte=10"`
	Format      string    `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}

type BigMovesRequest struct {
	Pair      string `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	Period    string `query:"period" json:"period" validate:"omitempty,oneof=6m 1y 2y 3y 5y 10y"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Window    string `query:"window" json:"window" validate:"omitempty,oneof=1w 2w 1m 3m 6m 1y"`
	NumMoves  int    `query:"num_moves" json:"num_moves" validate:"gte=0,lte=20"`
	Direction string `query:"direction" json:"direction" validate:"omitempty,oneof=largest smallest"`
	Highlight string `query:"highlight" json:"highlight" validate:"omitempty,oneof=window end"`
	Warmup    string `query:"warmup" json:"warmup" validate:"omitempty,oneof=exclude zero"`
	Format    string `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}

type IndicatorsRequest struct {
	Pair    string `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	Period  string `query:"period" json:"period" default:"1y" validate:"oneof=6m 1y 2y 3y 5y 10y"`
	EndDate string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ComputeRequest is the payload of the Kafka request topic.
type ComputeRequest struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	RiskCone *RiskConeRequest `json:"riskcone,omitempty"`
	BigMoves *BigMovesRequest `json:"bigmoves,omitempty"`
}

// Compute request kinds.
const (
	KindRiskCone = "riskcone"
	KindBigMoves = "bigmoves"
)
