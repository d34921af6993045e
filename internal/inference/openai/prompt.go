package openai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lectio-edu/lectio/internal/inference"
)

const generateTestSystemPrompt = `You are a teaching assistant that writes multiple-choice tests from study material.

STRICT OUTPUT: return exactly one JSON object and nothing else. No Markdown, no code fences.

FORMAT:
{"questions": [
  {
    "questionText": "...",
    "options": ["...", "...", "...", "..."],
    "correctOption": "...",
    "aiExplanation": "...",
    "relatedContent": {"passages": [1], "pages": [12]}
  }
]}

RULES
- Write exactly %d questions.
- Every question has exactly %d options with distinct wording.
- "correctOption" is copied character for character from one of the "options".
- "aiExplanation" is 1-2 sentences explaining why the correct option is right.
- "relatedContent.passages" lists the numbers of the passages the question is based on.
- "relatedContent.pages" lists page numbers of those passages. Never invent pages.
- Only ask about facts stated in the passages.
- Every "questionText" is unique within the test.
- Do not repeat or closely paraphrase any question listed under EXCLUDED QUESTIONS.`

func (client *Client) getRequestBody(args inference.GenerateTestRequest) ChatCompletionRequest {
	questionCount := args.QuestionCount
	if questionCount == 0 {
		questionCount = 10
	}
	optionCount := args.OptionCount
	if optionCount == 0 {
		optionCount = 4
	}

	return ChatCompletionRequest{
		Model:       client.model,
		Temperature: client.temperature,
		ResponseFormat: &ResponseFormat{
			Type: "json_object",
		},
		Messages: []Message{
			{
				Role:    RoleSystem,
				Content: fmt.Sprintf(generateTestSystemPrompt, questionCount, optionCount),
			},
			{
				Role:    RoleUser,
				Content: buildUserPrompt(args),
			},
		},
	}
}

func buildUserPrompt(args inference.GenerateTestRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SUBJECT: %s\n", args.SubjectTitle)
	fmt.Fprintf(&b, "BOOK: %s\n", args.BookTitle)
	if args.ChapterTitle != "" {
		fmt.Fprintf(&b, "CHAPTER: %s\n", args.ChapterTitle)
	} else {
		b.WriteString("CHAPTER: whole book\n")
	}
	if len(args.Topics) > 0 {
		fmt.Fprintf(&b, "TOPICS: %s\n", strings.Join(args.Topics, "; "))
	}

	if len(args.ExcludedQuestions) > 0 {
		b.WriteString("\nEXCLUDED QUESTIONS:\n")
		for _, question := range args.ExcludedQuestions {
			fmt.Fprintf(&b, "- %s\n", question)
		}
	}

	b.WriteString("\nPASSAGES:\n")
	for _, passage := range args.Passages {
		fmt.Fprintf(&b, "[passage %d]", passage.Number)
		if passage.ChapterTitle != "" {
			fmt.Fprintf(&b, " chapter %q", passage.ChapterTitle)
		}
		if passage.TopicTitle != "" {
			fmt.Fprintf(&b, " topic %q", passage.TopicTitle)
		}
		if len(passage.Pages) > 0 {
			pages := make([]string, 0, len(passage.Pages))
			for _, page := range passage.Pages {
				pages = append(pages, strconv.Itoa(page))
			}
			fmt.Fprintf(&b, " pages %s", strings.Join(pages, ", "))
		}
		b.WriteString("\n")
		b.WriteString(passage.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
