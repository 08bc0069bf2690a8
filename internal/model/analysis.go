package model

// ProfileAnalysis is the ephemeral output of the premium-only profile
// analysis. It is produced per request and never persisted.
type ProfileAnalysis struct {
	Platform         Platform `json:"platform"`
	Handle           string   `json:"handle"`
	Analysis         string   `json:"analysis"`
	BestPostingTimes []string `json:"bestPostingTimes"`
	Recommendations  []string `json:"recommendations"`
	AudienceInsights string   `json:"audienceInsights"`
	Performance      string   `json:"performance"`
}
