package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

// Generator is the generative-engine collaborator. The core treats it as an
// opaque function returning a bounded list of drafts; the drafts are stamped
// with owner and timestamp by the idea service after a successful quota
// consume.
type Generator interface {
	Generate(ctx context.Context, topic string, count int) ([]model.IdeaDraft, error)
}

// TemplateGenerator produces ideas from a fixed set of archetypes. It is the
// built-in engine and the fallback when no external engine is configured.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

type archetype struct {
	contentType string
	title       string
	script      string
	hashtags    []string
}

var archetypes = []archetype{
	{
		contentType: "Reels",
		title:       "🔥 %s: O Segredo que Ninguém Conta",
		script:      "1. Gancho: 'Você sabia que sobre %s...'\n2. Revele 3 insights importantes\n3. Conte sua experiência pessoal\n4. Pergunte: 'E você, já passou por isso?'",
		hashtags:    []string{"#segredo", "#dicavaliosa", "#viral", "#conteudo"},
	},
	{
		contentType: "Post",
		title:       "✨ Transformei minha vida com %s",
		script:      "1. Antes vs Depois sobre %s\n2. Os 3 passos que me ajudaram\n3. Resultados que obtive\n4. 'Salva este post para aplicar!'",
		hashtags:    []string{"#transformacao", "#motivacao", "#inspiracao", "#crescimento"},
	},
	{
		contentType: "Stories",
		title:       "🚨 ERRO Fatal que todos cometem com %s",
		script:      "1. 'Pare tudo que você está fazendo!'\n2. O erro mais comum sobre %s\n3. Como eu descobri isso\n4. A forma correta de fazer",
		hashtags:    []string{"#erro", "#alerta", "#dica", "#cuidado"},
	},
	{
		contentType: "Reels",
		title:       "💰 Como %s mudou meu faturamento",
		script:      "1. Números: antes e depois\n2. O que aprendi sobre %s\n3. Estratégias que funcionaram\n4. 'Comenta AI se quer saber mais'",
		hashtags:    []string{"#faturamento", "#negocio", "#empreender", "#resultados"},
	},
	{
		contentType: "Reels",
		title:       "🎯 %s em 60 segundos",
		script:      "1. 'Você tem 1 minuto livre?'\n2. Resumo rápido sobre %s\n3. 3 pontos essenciais\n4. 'Seguir para mais dicas assim'",
		hashtags:    []string{"#rapidinha", "#resumo", "#pratico", "#follow"},
	},
}

func (g *TemplateGenerator) Generate(ctx context.Context, topic string, count int) ([]model.IdeaDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drafts := make([]model.IdeaDraft, 0, count)
	topicTag := TopicHashtag(topic)

	for i := 0; i < count; i++ {
		a := archetypes[i%len(archetypes)]
		drafts = append(drafts, model.IdeaDraft{
			ContentType: a.contentType,
			Title:       fmt.Sprintf(a.title, topic),
			Script:      fmt.Sprintf(a.script, topic),
			Hashtags:    append([]string{topicTag}, a.hashtags...),
		})
	}

	return drafts, nil
}

// TopicHashtag turns a free-text topic into a single hashtag.
func TopicHashtag(topic string) string {
	return "#" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "")
}
