package errx

// RegistryEntry describes a registered error code.
type RegistryEntry struct {
	Code        string
	Description string
}

// Error codes follow a stable 5-digit scheme where the first two digits are
// the domain and the last three digits are reserved for subcodes.
const (
	CodeCLI        = "60000"
	CodeCluster    = "61000"
	CodeKubeconfig = "62000"
	CodeEnv        = "63000"
	CodeCondition  = "64000"
	CodeState      = "65000"
	CodeReport     = "66000"
	CodeConfig     = "69000"
)

const (
	DescCLI        = "CLI/argument validation error"
	DescCluster    = "Cluster lifecycle error"
	DescKubeconfig = "Kubeconfig/credentials error"
	DescEnv        = "Environment orchestration error"
	DescCondition  = "Condition/readiness error"
	DescState      = "State store error"
	DescReport     = "Run reporting error"
	DescConfig     = "Configuration error"
)

var registryEntries = []RegistryEntry{
	{Code: CodeCLI, Description: DescCLI},
	{Code: CodeCluster, Description: DescCluster},
	{Code: CodeKubeconfig, Description: DescKubeconfig},
	{Code: CodeEnv, Description: DescEnv},
	{Code: CodeCondition, Description: DescCondition},
	{Code: CodeState, Description: DescState},
	{Code: CodeReport, Description: DescReport},
	{Code: CodeConfig, Description: DescConfig},
}

var registryMap = map[string]string{
	CodeCLI:        DescCLI,
	CodeCluster:    DescCluster,
	CodeKubeconfig: DescKubeconfig,
	CodeEnv:        DescEnv,
	CodeCondition:  DescCondition,
	CodeState:      DescState,
	CodeReport:     DescReport,
	CodeConfig:     DescConfig,
}

// ErrorRegistry returns the error registry in deterministic order.
func ErrorRegistry() []RegistryEntry {
	entries := make([]RegistryEntry, len(registryEntries))
	copy(entries, registryEntries)
	return entries
}

// DescriptionFor returns the registry description for a code.
func DescriptionFor(code string) (string, bool) {
	desc, ok := registryMap[code]
	return desc, ok
}

// IsValidCode checks if the given error code is registered.
func IsValidCode(code string) bool {
	_, ok := registryMap[code]
	return ok
}
