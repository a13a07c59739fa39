package envscan

// Status summarises a scan outcome.
type Status string

const (
	StatusNoEnvFiles   Status = "no_env_files"
	StatusNoSecrets    Status = "no_secrets"
	StatusSecretsFound Status = "secrets_found"
)

// Finding is one sensitive key discovered in an env file.
type Finding struct {
	File  string `json:"file" yaml:"file"`
	Line  int    `json:"line" yaml:"line"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Report aggregates the result of scanning one root directory.
// Findings are ordered by file discovery order, then by line.
type Report struct {
	Root            string    `json:"root" yaml:"root"`
	EnvFilesScanned []string  `json:"env_files_scanned" yaml:"env_files_scanned"`
	Findings        []Finding `json:"findings" yaml:"findings"`
	Status          Status    `json:"status" yaml:"status"`
}

// DeriveStatus computes the report status from scanned files and findings.
func DeriveStatus(scanned []string, findings []Finding) Status {
	switch {
	case len(scanned) == 0:
		return StatusNoEnvFiles
	case len(findings) == 0:
		return StatusNoSecrets
	default:
		return StatusSecretsFound
	}
}
