package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
)

type RecommendationsInput struct {
	ViewingHistory []string `json:"viewingHistory" validate:"required,min=1,dive,required"`
	Preferences    string   `json:"preferences"`
}

type SimilarInput struct {
	Title string `json:"title" validate:"required"`
}

// Output lists suggested titles. They are free text and may name items
// that are not in the catalog.
type Output struct {
	Recommendations []string `json:"recommendations" validate:"required,dive,required"`
}

var outputSchema = json.RawMessage(`{"type":"object","properties":{"recommendations":{"type":"array","items":{"type":"string"}}},"required":["recommendations"]}`)

var funcs = template.FuncMap{"join": strings.Join}

var recommendationsPrompt = template.Must(template.New("recommendations").Funcs(funcs).Parse(
	`You are a movie and TV show recommendation expert. Based on the user's viewing history and preferences, suggest movies and TV shows they might enjoy.

Viewing History: {{join .ViewingHistory ", "}}
Preferences: {{.Preferences}}

Recommendations:
`))

var similarPrompt = template.Must(template.New("similar").Parse(
	`You are a movie and TV show recommendation expert. Find a list of movies and TV shows that are similar in theme, genre, and style to the following title:

Title: {{.Title}}

Provide only the titles of the recommendations.`))

var ErrInvalidOutput = errors.New("model returned an unexpected shape")

// Flows binds the prompts to a generator.
type Flows struct {
	gen      Generator
	validate *validator.Validate
}

func NewFlows(gen Generator) *Flows {
	return &Flows{gen: gen, validate: validator.New()}
}

// Recommend suggests titles from a viewing history and free-text
// preferences.
func (f *Flows) Recommend(ctx context.Context, in RecommendationsInput) (*Output, error) {
	if err := f.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid recommendations input: %w", err)
	}
	return f.run(ctx, recommendationsPrompt, in)
}

// Similar suggests titles close in theme, genre and style to one title.
func (f *Flows) Similar(ctx context.Context, in SimilarInput) (*Output, error) {
	if err := f.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid similar input: %w", err)
	}
	return f.run(ctx, similarPrompt, in)
}

func (f *Flows) run(ctx context.Context, tmpl *template.Template, in any) (*Output, error) {
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, in); err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}

	raw, err := f.gen.Generate(ctx, Request{Prompt: prompt.String(), Schema: outputSchema})
	if err != nil {
		return nil, err
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := f.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return &out, nil
}
