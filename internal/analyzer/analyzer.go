package analyzer

import (
	"context"
	"fmt"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

// Analyzer is the profile-analysis collaborator behind the premium-only
// analyze operation. Results are ephemeral and never persisted.
type Analyzer interface {
	Analyze(ctx context.Context, platform model.Platform, handle string) (*model.ProfileAnalysis, error)
}

// TemplateAnalyzer is the built-in engine. It produces plausible,
// platform-flavored guidance without calling out to any network.
type TemplateAnalyzer struct{}

func NewTemplateAnalyzer() *TemplateAnalyzer {
	return &TemplateAnalyzer{}
}

var postingTimes = map[model.Platform][]string{
	model.PlatformInstagram: {"11:00", "14:00", "19:00"},
	model.PlatformTikTok:    {"07:00", "12:00", "21:00"},
	model.PlatformKwai:      {"09:00", "13:00", "20:00"},
}

func (a *TemplateAnalyzer) Analyze(ctx context.Context, platform model.Platform, handle string) (*model.ProfileAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	times, ok := postingTimes[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}

	return &model.ProfileAnalysis{
		Platform: platform,
		Handle:   handle,
		Analysis: fmt.Sprintf(
			"O perfil @%s no %s tem potencial de crescimento consistente. A frequência de publicação é o fator que mais limita o alcance atual.",
			handle, platform),
		BestPostingTimes: times,
		Recommendations: []string{
			"Publique ao menos 4 vezes por semana nos horários de pico",
			"Responda comentários na primeira hora após publicar",
			"Use 5 a 8 hashtags específicas do nicho em vez de genéricas",
			fmt.Sprintf("Experimente o formato nativo de vídeo curto do %s", platform),
		},
		AudienceInsights: fmt.Sprintf(
			"A audiência de @%s é mais ativa no período noturno e responde melhor a conteúdo em primeira pessoa.",
			handle),
		Performance: "Engajamento estimado acima da média do nicho; alcance orgânico com margem para dobrar com consistência de publicação.",
	}, nil
}
