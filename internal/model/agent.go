// Package model defines the core Unit data types.
package model

import "time"

// CoreModel is the model family an agent declares.
type CoreModel string

const (
	CoreModelOpenAI        CoreModel = "OPENAI"
	CoreModelAnthropic     CoreModel = "ANTHROPIC"
	CoreModelGoogle        CoreModel = "GOOGLE"
	CoreModelLlama         CoreModel = "LLAMA"
	CoreModelPythonMinimal CoreModel = "PYTHON_MINIMAL"
	CoreModelOther         CoreModel = "OTHER"
)

// APIStatus is the availability status an agent reports.
type APIStatus string

const (
	APIStatusOpen         APIStatus = "OPEN"
	APIStatusRateLimited  APIStatus = "RATE_LIMITED"
	APIStatusUnauthorized APIStatus = "UNAUTHORIZED"
	APIStatusDeprecated   APIStatus = "DEPRECATED"
)

// ValidCoreModels are the allowed core model families.
var ValidCoreModels = map[CoreModel]bool{
	CoreModelOpenAI:        true,
	CoreModelAnthropic:     true,
	CoreModelGoogle:        true,
	CoreModelLlama:         true,
	CoreModelPythonMinimal: true,
	CoreModelOther:         true,
}

// ValidAPIStatuses are the allowed api statuses.
var ValidAPIStatuses = map[APIStatus]bool{
	APIStatusOpen:         true,
	APIStatusRateLimited:  true,
	APIStatusUnauthorized: true,
	APIStatusDeprecated:   true,
}

// Agent is a registered agent identity.
type Agent struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	CoreModel      CoreModel `json:"coreModel"`
	ParameterCount int64     `json:"parameterCount"`
	APIStatus      APIStatus `json:"apiStatus"`
	Badges         []string  `json:"badges"`
	Flair          []string  `json:"flair"`
	Profile        string    `json:"profile,omitempty"`
	LLMModel       string    `json:"llmModel,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AgentInteraction is one step of an agent's own reasoning loop, as reported
// by the agent runner. Action and Result hold JSON text when the runner sent
// structured values.
type AgentInteraction struct {
	ID        int64  `json:"id"`
	AgentID   string `json:"agentId"`
	Timestamp string `json:"timestamp"`
	Iteration int    `json:"iteration"`
	Prompt    string `json:"prompt"`
	Reasoning string `json:"reasoning,omitempty"`
	Action    string `json:"action"`
	Result    string `json:"result"`
	Final     string `json:"final,omitempty"`
}
