package analyzer

// FileContent is one fetched key file with its tier and cost.
type FileContent struct {
	Path          string `json:"path"`
	Content       string `json:"content"`
	Size          int    `json:"size"`
	Tier          int    `json:"tier"`
	TokenEstimate int    `json:"token_estimate"`
}

// TechStack is everything detected about a repo's technology choices.
// All slices are sorted and duplicate-free.
type TechStack struct {
	Languages       []string `json:"languages"`
	Frameworks      []string `json:"frameworks"`
	Databases       []string `json:"databases"`
	Infrastructure  []string `json:"infrastructure"`
	PackageManagers []string `json:"package_managers"`
}

// ModelInfo is one data model found in source code.
type ModelInfo struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields"`
}

// EndpointInfo is one HTTP route found in source code.
type EndpointInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	File    string `json:"file"`
	Handler string `json:"handler,omitempty"`
}

// RepoAnalysis is the result for a single repository. A repo whose tree
// could not be fetched still yields a RepoAnalysis carrying the error,
// so one bad repo never sinks a multi-repo run.
type RepoAnalysis struct {
	FullName         string         `json:"full_name"`
	Branch           string         `json:"branch"`
	Stack            TechStack      `json:"stack"`
	KeyFiles         []FileContent  `json:"key_files"`
	Models           []ModelInfo    `json:"models"`
	Endpoints        []EndpointInfo `json:"endpoints"`
	DetectedPatterns []string       `json:"detected_patterns"`
	TotalFiles       int            `json:"total_files"`
	Errors           []string       `json:"errors,omitempty"`
}

// Context combines every analyzed repository into the view the planner
// and generators consume.
type Context struct {
	Repositories     []RepoAnalysis `json:"repositories"`
	CombinedStack    TechStack      `json:"combined_stack"`
	AllKeyFiles      []FileContent  `json:"all_key_files"`
	AllModels        []ModelInfo    `json:"all_models"`
	AllEndpoints     []EndpointInfo `json:"all_endpoints"`
	DetectedPatterns []string       `json:"detected_patterns"`
	TotalFiles       int            `json:"total_files"`
	TotalTokens      int            `json:"total_tokens"`
	Errors           []string       `json:"errors,omitempty"`
}
