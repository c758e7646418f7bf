package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const timetablePrompt = `Analyze this university timetable image and extract every class block.
For each class give the course name, the professor (if shown), the day of week
(Sunday=0, Monday=1, Tuesday=2, Wednesday=3, Thursday=4, Friday=5, Saturday=6),
the start and end time as 24-hour HH:MM, and the room.
Return the result in the following JSON format:
{"courses": [{"course_name": "Course", "professor": "Professor", "day_of_week": 1, "start_time": "09:00", "end_time": "10:30", "location": "Room"}]}
Only return the JSON, no other text.`

// OpenAI extracts courses with a vision-capable chat model.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpenAI(apiKey, apiBase, model string, logger *zap.Logger) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: 60 * time.Second,
		logger:  logger,
	}
}

func (a *OpenAI) Message() string {
	return "AI analysis complete"
}

func (a *OpenAI) Analyze(ctx context.Context, img Image) ([]CourseRecord, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	contentType := img.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img.Data)
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	a.logger.Debug("Requesting timetable analysis",
		zap.String("model", a.model),
		zap.Int("image_bytes", len(img.Data)),
	)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You read university timetables and answer with JSON only.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: timetablePrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	courses, err := parseCourses(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Timetable analyzed",
		zap.Int("courses", len(courses)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return courses, nil
}

func parseCourses(content string) ([]CourseRecord, error) {
	content = cleanJSONResponse(content)

	var payload struct {
		Courses []CourseRecord `json:"courses"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	return payload.Courses, nil
}

// cleanJSONResponse strips a markdown code fence around the model output.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	return s
}
