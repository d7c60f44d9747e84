package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/invopop/jsonschema"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// Plan defaults when the model leaves a field out.
const (
	defaultPlanTitle  = "个性化学习计划"
	defaultPlanDays   = 30
	defaultDifficulty = 3
)

// PlanDraft is the structured plan the model is asked to return.
type PlanDraft struct {
	Title           string      `json:"title" jsonschema:"description=Short plan title"`
	Description     string      `json:"description" jsonschema:"description=One paragraph overview of the plan"`
	Objectives      []string    `json:"objectives" jsonschema:"description=Specific and measurable learning objectives"`
	Stages          []PlanStage `json:"stages" jsonschema:"description=Ordered learning path"`
	Resources       []string    `json:"resources" jsonschema:"description=Recommended books, courses or tools"`
	Assessment      []string    `json:"assessment" jsonschema:"description=How progress is evaluated"`
	EstimatedDays   int         `json:"estimated_days" jsonschema:"description=Total duration in days"`
	DifficultyLevel int         `json:"difficulty_level" jsonschema:"description=Difficulty from 1 (easy) to 5 (hard)"`
}

// PlanStage is one step of the learning path.
type PlanStage struct {
	Name   string   `json:"name"`
	Days   int      `json:"days"`
	Topics []string `json:"topics"`
}

// PlanSchema is reflected from PlanDraft once at init.
var PlanSchema = reflectPlanSchema()

func reflectPlanSchema() *llm.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(&PlanDraft{})
	s.Version = ""
	s.ID = ""

	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshal plan schema: %v", err))
	}
	var def map[string]any
	if err := json.Unmarshal(data, &def); err != nil {
		panic(fmt.Sprintf("unmarshal plan schema: %v", err))
	}

	return &llm.Schema{
		Name:        "learning-plan",
		Description: "A personalised learning plan with objectives, staged path, resources and assessment",
		Definition:  def,
	}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// generatePlan asks the model for a structured plan. A response that fails
// schema validation is salvaged from its raw text when possible; otherwise
// the raw text becomes the description of a default plan.
func (s *Service) generatePlan(ctx context.Context, st *store.Student, info tutor.KeyInfo) (*store.LearningPlan, llm.Usage, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposePlan)

	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPlanPrompt(st, info)},
		},
		Schema:      PlanSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})

	var draft PlanDraft
	var usage llm.Usage
	switch {
	case err == nil:
		usage = resp.Usage
		if jerr := json.Unmarshal(resp.Content, &draft); jerr != nil {
			draft = salvagePlan(resp.Text)
		}
	default:
		var inv *llm.ErrInvalidResponse
		var cut *llm.ErrMaxTokensExceeded
		switch {
		case errors.As(err, &inv):
			draft = salvagePlan(string(inv.Content))
		case errors.As(err, &cut):
			draft = salvagePlan(string(cut.Content))
		default:
			return nil, usage, &tutor.GenerationError{Op: "plan", Err: err}
		}
	}

	return draftToPlan(st.ID, draft), usage, nil
}

// salvagePlan extracts the outermost JSON object from text.
func salvagePlan(text string) PlanDraft {
	if m := jsonObject.FindString(text); m != "" {
		var d PlanDraft
		if err := json.Unmarshal([]byte(m), &d); err == nil {
			return d
		}
	}
	return PlanDraft{Description: text}
}

func draftToPlan(studentID int, d PlanDraft) *store.LearningPlan {
	if d.Title == "" {
		d.Title = defaultPlanTitle
	}
	if d.EstimatedDays <= 0 {
		d.EstimatedDays = defaultPlanDays
	}
	if d.DifficultyLevel < 1 || d.DifficultyLevel > 5 {
		d.DifficultyLevel = defaultDifficulty
	}

	content := map[string]any{}
	if len(d.Stages) > 0 {
		content["stages"] = d.Stages
	}
	if len(d.Resources) > 0 {
		content["resources"] = d.Resources
	}
	if len(d.Assessment) > 0 {
		content["assessment"] = d.Assessment
	}

	return &store.LearningPlan{
		StudentID:       studentID,
		Title:           d.Title,
		Description:     d.Description,
		Objectives:      nonNil(d.Objectives),
		Content:         content,
		EstimatedDays:   d.EstimatedDays,
		DifficultyLevel: d.DifficultyLevel,
		IsActive:        true,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
