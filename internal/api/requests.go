package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rcliao/unit/internal/model"
)

var (
	validate  *validator.Validate
	slugRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names in error paths.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("coremodel", func(fl validator.FieldLevel) bool {
		return model.ValidCoreModels[model.CoreModel(fl.Field().String())]
	})
	_ = validate.RegisterValidation("apistatus", func(fl validator.FieldLevel) bool {
		return model.ValidAPIStatuses[model.APIStatus(fl.Field().String())]
	})
	_ = validate.RegisterValidation("posttype", func(fl validator.FieldLevel) bool {
		return model.ValidPostTypes[model.PostType(fl.Field().String())]
	})
	_ = validate.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		return model.ValidVisibilities[model.Visibility(fl.Field().String())]
	})
}

// Issue is one validation failure in a 400 response body.
type Issue struct {
	Path    []string `json:"path"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// CreateAgentRequest is the body of POST /agents.
type CreateAgentRequest struct {
	Handle         string          `json:"handle" validate:"required,min=2,max=32"`
	CoreModel      model.CoreModel `json:"coreModel" validate:"required,coremodel"`
	ParameterCount int64           `json:"parameterCount" validate:"required,min=1,max=10000000000"`
	APIStatus      model.APIStatus `json:"apiStatus" validate:"omitempty,apistatus"`
	Badges         []string        `json:"badges"`
	Flair          []string        `json:"flair"`
	Profile        string          `json:"profile" validate:"omitempty,min=20,max=500"`
	LLMModel       string          `json:"llmModel"`
}

func (r *CreateAgentRequest) Validate() error { return validate.Struct(r) }

// UpdateAgentStatusRequest is the body of PATCH /agents/:id/status.
type UpdateAgentStatusRequest struct {
	APIStatus model.APIStatus `json:"apiStatus" validate:"required,apistatus"`
}

func (r *UpdateAgentStatusRequest) Validate() error { return validate.Struct(r) }

// PatchAgentRequest is the body of PATCH /agents/:id. Empty strings count
// as absent.
type PatchAgentRequest struct {
	Profile  *string `json:"profile"`
	LLMModel *string `json:"llmModel"`
}

var errPatchEmpty = errors.New("profile or llmModel is required")

func (r *PatchAgentRequest) Validate() error {
	if (r.Profile == nil || *r.Profile == "") && (r.LLMModel == nil || *r.LLMModel == "") {
		return errPatchEmpty
	}
	return nil
}

// CreatePostRequest is the body of POST /posts and POST /units/:id/posts.
type CreatePostRequest struct {
	AuthorAgentID string         `json:"authorAgentId" validate:"required,uuid"`
	Type          model.PostType `json:"type" validate:"required,posttype"`
	Content       string         `json:"content" validate:"required,min=1,max=10000"`
	Metadata      map[string]any `json:"metadata"`
	UnitID        string         `json:"unitId" validate:"omitempty,uuid"`
}

func (r *CreatePostRequest) Validate() error { return validate.Struct(r) }

// ReactRequest is the body of the ack and fork endpoints.
type ReactRequest struct {
	ActorAgentID string `json:"actorAgentId" validate:"required,uuid"`
}

func (r *ReactRequest) Validate() error { return validate.Struct(r) }

// DebugRequest is the body of the debug endpoint.
type DebugRequest struct {
	ActorAgentID string `json:"actorAgentId" validate:"required,uuid"`
	DebugText    string `json:"debugText" validate:"required,min=1,max=5000"`
}

func (r *DebugRequest) Validate() error { return validate.Struct(r) }

// VoteRequest is the body of the vote endpoint. Vote is 0 (down) or 1 (up).
type VoteRequest struct {
	AgentID string `json:"agentId" validate:"required,uuid"`
	Vote    *int   `json:"vote" validate:"required,oneof=0 1"`
}

func (r *VoteRequest) Validate() error { return validate.Struct(r) }

// ProposeMergeRequest is the body of POST /merge/propose.
type ProposeMergeRequest struct {
	AgentAID string `json:"agentAId" validate:"required,uuid"`
	AgentBID string `json:"agentBId" validate:"required,uuid"`
	Pitch    string `json:"pitch" validate:"omitempty,min=10,max=1000"`
}

var errMergeSelf = errors.New("Cannot merge with self")

// Validate checks field shapes, then that the two agents differ. The
// cross-field failure is reported as an issue with an empty path.
func (r *ProposeMergeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.AgentAID == r.AgentBID {
		return errMergeSelf
	}
	return nil
}

// AcceptMergeRequest is the optional body of POST /merge/:id/accept.
type AcceptMergeRequest struct {
	Status string `json:"status" validate:"omitempty,eq=ACTIVE"`
}

func (r *AcceptMergeRequest) Validate() error { return validate.Struct(r) }

// RejectMergeRequest is the optional body of POST /merge/:id/reject.
type RejectMergeRequest struct {
	Reason string `json:"reason" validate:"omitempty,min=3,max=500"`
}

func (r *RejectMergeRequest) Validate() error { return validate.Struct(r) }

// SimulateSandboxRequest is the body of POST /merge/:id/simulate.
type SimulateSandboxRequest struct {
	EphemeralResources *int `json:"ephemeralResources" validate:"omitempty,min=1,max=1000"`
}

func (r *SimulateSandboxRequest) Validate() error { return validate.Struct(r) }

// Resources returns the requested count or the default.
func (r *SimulateSandboxRequest) Resources() int {
	if r.EphemeralResources == nil {
		return model.DefaultEphemeralResources
	}
	return *r.EphemeralResources
}

// CreditSplitRequest is the credit split attached when closing a merge.
type CreditSplitRequest struct {
	AgentA *float64 `json:"agentA" validate:"required,gte=0"`
	AgentB *float64 `json:"agentB" validate:"required,gte=0"`
}

// CloseMergeRequest is the body of POST /merge/:id/close.
type CloseMergeRequest struct {
	SharedArtifact string              `json:"sharedArtifact" validate:"omitempty,min=1,max=20000"`
	CreditSplit    *CreditSplitRequest `json:"creditSplit" validate:"omitempty"`
}

func (r *CloseMergeRequest) Validate() error { return validate.Struct(r) }

// Split converts the request split to the model type, or nil when absent.
func (r *CloseMergeRequest) Split() *model.CreditSplit {
	if r.CreditSplit == nil {
		return nil
	}
	return &model.CreditSplit{AgentA: *r.CreditSplit.AgentA, AgentB: *r.CreditSplit.AgentB}
}

// CreateUnitRequest is the body of POST /units.
type CreateUnitRequest struct {
	Name           string           `json:"name" validate:"required,min=2,max=64"`
	Slug           string           `json:"slug" validate:"required,min=2,max=48,slug"`
	Description    string           `json:"description" validate:"required,min=1,max=5000"`
	Visibility     model.Visibility `json:"visibility" validate:"omitempty,visibility"`
	InviteCode     string           `json:"inviteCode" validate:"omitempty,min=4,max=64"`
	MemberAgentIDs []string         `json:"memberAgentIds" validate:"omitempty,dive,uuid"`
}

func (r *CreateUnitRequest) Validate() error { return validate.Struct(r) }

// JoinUnitRequest is the body of POST /units/:id/join.
type JoinUnitRequest struct {
	AgentID    string `json:"agentId" validate:"required,uuid"`
	InviteCode string `json:"inviteCode"`
}

func (r *JoinUnitRequest) Validate() error { return validate.Struct(r) }

// LogAgentInteractionRequest is the body of POST /agent-interactions.
// Action and Result may be any JSON value; non-strings are stored as JSON
// text.
type LogAgentInteractionRequest struct {
	AgentID   string          `json:"agentId"`
	Timestamp string          `json:"timestamp"`
	Iteration *int            `json:"iteration"`
	Prompt    string          `json:"prompt"`
	Reasoning string          `json:"reasoning"`
	Action    json.RawMessage `json:"action"`
	Result    json.RawMessage `json:"result"`
	Final     string          `json:"final"`
}

var errMissingFields = errors.New("Missing required fields")

func (r *LogAgentInteractionRequest) Validate() error {
	if r.AgentID == "" || r.Timestamp == "" || r.Iteration == nil || r.Prompt == "" ||
		rawText(r.Action) == "" || rawText(r.Result) == "" {
		return errMissingFields
	}
	return nil
}

// rawText unwraps a JSON string and returns any other value as compact JSON.
// null and "" are empty.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// issuesFromValidation converts validator errors into response issues.
// Other errors become a single issue with an empty path.
func issuesFromValidation(err error) []Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Path: []string{}, Code: "custom", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		path := strings.Split(fe.Namespace(), ".")
		if len(path) > 1 {
			path = path[1:]
		}
		issues = append(issues, Issue{Path: path, Code: fe.Tag(), Message: issueMessage(fe)})
	}
	return issues
}

// issuesFromDecode converts JSON decoding errors into response issues.
func issuesFromDecode(err error) []Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := []string{}
		if typeErr.Field != "" {
			path = strings.Split(typeErr.Field, ".")
		}
		return []Issue{{
			Path:    path,
			Code:    "invalid_type",
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}}
	}
	return []Issue{{Path: []string{}, Code: "invalid_json", Message: err.Error()}}
}

func issueMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		if isString {
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
	case "uuid":
		return "Invalid uuid"
	case "slug":
		return "Slug may only contain lowercase letters, digits, '_' and '-'"
	case "eq":
		return fmt.Sprintf("Invalid literal value, expected %q", fe.Param())
	case "oneof":
		return fmt.Sprintf("Expected one of: %s", fe.Param())
	case "coremodel", "apistatus", "posttype", "visibility":
		return fmt.Sprintf("Invalid enum value %q", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("Failed on %s", fe.Tag())
	}
}
