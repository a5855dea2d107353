package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/config"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// SectionDelimiter separates the summary, question and answer sections in
// generated output: eleven hyphens on a line of their own. The instruction
// template forbids the model from emitting it anywhere else.
const SectionDelimiter = "-----------"

// promptTemplate asks for the three-section study bundle. The document text
// is appended after the template.
const promptTemplate = `make a summarization of the files given in the form of an article-like text. Most of the information inside of the
files will be overlaping, so make sure to not use redundant information and try to highlight important or special information.
Make it readable and easy to understand for college level students. Also make a multiple answer question and short form answer
question set with the correct answers and where you got the answer based on the text given, use this format as an example for
the summarization and questions. Make sure to use "` + SectionDelimiter + `" to seperate texts between summarization, questions, and answers,
and never write that separator line anywhere else in your output.

*Title of material*

*Subtitile 1*

Information about subtitle 1

*Subtitle 2*

-bullet point 1 of subtitle 2
-bullet point 2 of subtitle 2
-.....

` + SectionDelimiter + `

*Question section*

1. Question 1
a.)option a
b.)option b
c.)option c
d.)option d
e.)option e

2. Question 2
short form answer here

...

` + SectionDelimiter + `

*Answer sheet*
1. Answer 1
2. Answer 2

....
`

// BuildPrompt wraps the extracted document text with the fixed instruction
// template.
func BuildPrompt(filename, text string) string {
	var b strings.Builder
	b.WriteString(promptTemplate)
	b.WriteString(fmt.Sprintf("\n\n--- Content of %s ---\n\n", filename))
	b.WriteString(text)
	return b.String()
}

// Generator produces raw bundle text from an assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIService is the generation client. Stateless, one request per call,
// no retries: a failed generation has no usable partial result.
type OpenAIService struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAIService(cfg *config.OpenAIConfig) *OpenAIService {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")))
	}

	return &OpenAIService{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
	}
}

// Generate sends the prompt and returns the raw output text
func (s *OpenAIService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(s.maxTokens)),
	})
	if err != nil {
		return "", GenerationError("generation request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", GenerationError("empty response from model", nil)
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", GenerationError("model returned no text", nil)
	}

	return text, nil
}
