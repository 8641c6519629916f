package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt IDs used by the pipeline.
const (
	UserGoal              = "user_goal"
	ProjectScope          = "project_scope"
	SiteURLs              = "site_urls"
	BackendWebserverCode  = "backend_webserver_code"
	ImprovedWebserverCode = "improved_webserver_code"
	FixedCode             = "fixed_code"
	RESTAPIEndpoints      = "rest_api_endpoints"
)

// Prompt represents a versioned prompt with metadata.
//
// Content is written as the signature and doc of a function the oracle is
// asked to evaluate; the caller supplies the input.
type Prompt struct {
	ID          string        // e.g. "project_scope"
	Version     PromptVersion // Version of this prompt
	Content     string        // Function text
	Description string        // Human-readable description
	Tags        []string      // e.g. ["architect", "json"]
	Deprecated  bool          // True if this version is deprecated
}
