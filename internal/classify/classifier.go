// Package classify tags exercises with a primary muscle group using an
// external chat-completions service.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/coachly/internal/models"
)

// Label maps one exercise name to a muscle group. An empty MuscleGroup means
// the service could not decide.
type Label struct {
	ExerciseName string             `json:"exerciseName"`
	MuscleGroup  models.MuscleGroup `json:"muscleGroup"`
}

// Classifier labels an ordered list of distinct exercise names. The result
// has one Label per input name, in input order.
type Classifier interface {
	Classify(ctx context.Context, names []string) ([]Label, error)
}

// Format selects how the service is asked to answer.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ChatClassifier implements Classifier on top of a ChatClient.
type ChatClassifier struct {
	client *ChatClient
}

// NewChatClassifier creates a ChatClassifier.
func NewChatClassifier(client *ChatClient) *ChatClassifier {
	return &ChatClassifier{client: client}
}

const systemPrompt = `You classify strength and conditioning exercises by their primary muscle group.
Allowed labels: %s.
Use an empty string when you are not confident.`

const jsonInstruction = `Answer with a JSON object of the form {"labels": [{"exerciseName": "...", "muscleGroup": "..."}]} containing one entry per exercise, in the order given. Copy each exerciseName exactly.`

const textInstruction = `Answer with one line per exercise in the form "name: label".`

func labelList() string {
	out := make([]string, len(models.MuscleGroups))
	for i, g := range models.MuscleGroups {
		out[i] = string(g)
	}
	return strings.Join(out, ", ")
}

func buildMessages(names []string, format Format) []Message {
	instruction := jsonInstruction
	if format == FormatText {
		instruction = textInstruction
	}
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nExercises:\n")
	for _, n := range names {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return []Message{
		{Role: "system", Content: fmt.Sprintf(systemPrompt, labelList())},
		{Role: "user", Content: b.String()},
	}
}

// Classify asks the service for a JSON answer and maps it onto names.
func (c *ChatClassifier) Classify(ctx context.Context, names []string) ([]Label, error) {
	names = distinct(names)
	if len(names) == 0 {
		return []Label{}, nil
	}

	out, err := c.client.Chat(ctx, buildMessages(names, FormatJSON), true)
	if err != nil {
		return nil, serviceErr("classify", err)
	}
	labels, err := ParseLabels(out, names)
	if err != nil {
		return nil, serviceErr("classify", err)
	}
	return labels, nil
}

// ClassifyText asks the service for a free-text answer and returns it as is.
func (c *ChatClassifier) ClassifyText(ctx context.Context, names []string) (string, error) {
	names = distinct(names)
	if len(names) == 0 {
		return "", nil
	}
	out, err := c.client.Chat(ctx, buildMessages(names, FormatText), false)
	if err != nil {
		return "", serviceErr("classify text", err)
	}
	return out, nil
}

// ParseLabels decodes a service answer, either a bare array of labels or an
// object with a "labels" array, possibly wrapped in a markdown code fence.
// The result follows the order of names. Names the answer omits and labels
// outside the known set map to the empty label; entries for names that were
// not asked about are dropped.
func ParseLabels(answer string, names []string) ([]Label, error) {
	body := extractJSON(answer)
	if body == "" {
		return nil, fmt.Errorf("no JSON in answer %q", truncate(answer, 80))
	}

	var raw []struct {
		ExerciseName string `json:"exerciseName"`
		MuscleGroup  string `json:"muscleGroup"`
	}
	if body[0] == '[' {
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, fmt.Errorf("decoding labels: %w", err)
		}
	} else {
		var wrapped struct {
			Labels json.RawMessage `json:"labels"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
			return nil, fmt.Errorf("decoding labels: %w", err)
		}
		if len(wrapped.Labels) == 0 {
			return nil, fmt.Errorf("answer has no labels array")
		}
		if err := json.Unmarshal(wrapped.Labels, &raw); err != nil {
			return nil, fmt.Errorf("decoding labels: %w", err)
		}
	}

	byName := make(map[string]models.MuscleGroup, len(raw))
	for _, r := range raw {
		key := normalizeName(r.ExerciseName)
		if _, seen := byName[key]; seen {
			continue
		}
		byName[key] = models.ParseMuscleGroup(r.MuscleGroup)
	}

	labels := make([]Label, len(names))
	for i, n := range names {
		labels[i] = Label{ExerciseName: n, MuscleGroup: byName[normalizeName(n)]}
	}
	return labels, nil
}

func extractJSON(s string) string {
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+7:]
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return ""
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
