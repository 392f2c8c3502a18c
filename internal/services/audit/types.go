package audit

// Rating is the model's traffic-light verdict on a piece of text
type Rating string

const (
	RatingGreen  Rating = "green"
	RatingYellow Rating = "yellow"
	RatingRed    Rating = "red"

	// RatingUnknown marks a response that was not parseable JSON
	RatingUnknown Rating = "unknown"
)

// Verdict is the parsed model response
type Verdict struct {
	Rating  Rating `json:"rating"`
	Summary string `json:"summary"`
}

// AnalyzeInput contains one compliance request
type AnalyzeInput struct {
	MemberID int64
	Username string
	Text     string
}

// AnalyzeOutput contains the model's verdict
type AnalyzeOutput struct {
	Verdict *Verdict
}
