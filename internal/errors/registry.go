package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://helium.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Registry Errors (H001-H009)
	// ============================================

	"H001": {
		Category:   CategoryRegistry,
		Message:    "Duplicate procedure",
		Detail:     "Two handlers were registered under the same procedure name. Names are unique across the application.",
		Suggestion: "Rename one of the procedures or remove the second registration",
		DocURL:     docBase + "H001",
	},
	"H002": {
		Category:   CategoryRegistry,
		Message:    "Invalid procedure name",
		Detail:     "Procedure names must be non-empty and contain something other than whitespace.",
		Suggestion: "Use a dotted name such as \"users.get\"",
		DocURL:     docBase + "H002",
	},
	"H003": {
		Category:   CategoryRegistry,
		Message:    "Registry sealed",
		Detail:     "Procedures can only be registered before the server is built.",
		Suggestion: "Move Register calls before App.Build or App.Run",
		DocURL:     docBase + "H003",
	},
	"H004": {
		Category: CategoryRegistry,
		Message:  "Missing handler",
		Detail:   "A procedure was registered with a nil handler.",
		DocURL:   docBase + "H004",
	},

	// ============================================
	// Routing Errors (H010-H019)
	// ============================================

	"H010": {
		Category:   CategoryRouting,
		Message:    "Invalid route pattern",
		Detail:     "A route template is malformed. Templates allow literal segments, [name], and a single trailing [...name] or [[...name]].",
		Suggestion: "Check the page file name for stray brackets or a catch-all that is not last",
		DocURL:     docBase + "H010",
	},
	"H011": {
		Category:   CategoryRouting,
		Message:    "Duplicate route",
		Detail:     "Two pages accept exactly the same paths, for example posts/[id] and posts/[slug], or posts.tsx and posts/index.tsx.",
		Suggestion: "Remove or rename one of the conflicting pages",
		DocURL:     docBase + "H011",
	},
	"H012": {
		Category: CategoryRouting,
		Message:  "Route not found",
		Detail:   "No page route matches the path.",
		DocURL:   docBase + "H012",
	},

	// ============================================
	// Configuration Errors (H020-H029)
	// ============================================

	"H020": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No helium.json, helium.yaml or helium.yml was found.",
		Suggestion: "Create helium.json in the project root or pass --config",
		DocURL:     docBase + "H020",
	},
	"H021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration syntax",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "H021",
	},
	"H022": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   docBase + "H022",
	},

	// ============================================
	// Manifest Errors (H030-H039)
	// ============================================

	"H030": {
		Category:   CategoryManifest,
		Message:    "Route manifest not found",
		Detail:     "The route manifest could not be found at the configured location.",
		Suggestion: "Run 'helium routes build' to generate it",
		DocURL:     docBase + "H030",
	},
	"H031": {
		Category:   CategoryManifest,
		Message:    "Invalid route manifest",
		Detail:     "The route manifest is not valid JSON or has an unsupported version.",
		Suggestion: "Regenerate it with 'helium routes build'",
		DocURL:     docBase + "H031",
	},
	"H032": {
		Category: CategoryManifest,
		Message:  "Route manifest storage failed",
		Detail:   "Reading or writing the route manifest failed.",
		DocURL:   docBase + "H032",
	},

	// ============================================
	// CLI Errors (H040-H059)
	// ============================================

	"H040": {
		Category:   CategoryCLI,
		Message:    "Pages directory not found",
		Suggestion: "Set pages.dir in helium.json or pass --pages",
		DocURL:     docBase + "H040",
	},
	"H041": {
		Category: CategoryCLI,
		Message:  "Server failed",
		DocURL:   docBase + "H041",
	},
	"H050": {
		Category: CategoryProtocol,
		Message:  "Call failed",
		Detail:   "The procedure call returned a failure.",
		DocURL:   docBase + "H050",
	},
	"H051": {
		Category:   CategoryProtocol,
		Message:    "Call could not reach the server",
		Suggestion: "Check that 'helium serve' is running and --url points at its RPC endpoint",
		DocURL:     docBase + "H051",
	},
	"H052": {
		Category:   CategoryProtocol,
		Message:    "Call timed out",
		Suggestion: "Raise --timeout or check the procedure for blocking work",
		DocURL:     docBase + "H052",
	},
}

// Lookup returns the template for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
