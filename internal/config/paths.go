package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds all file system paths used by the application.
// All paths are resolved relative to the executable location so the
// tool can run from any working directory.
type Paths struct {
	ExecutableDir string // Directory containing the executable
	DataDir       string // Root data directory
	CacheDir      string // Raw dataset cache (one CSV per dataset per year)
	ReportsDir    string // Generated report artifacts
	TablesDir     string // Per-report summary tables under reports
	LogsDir       string // Log files directory

	// Well-known files
	ConfigFile         string // edequity.yaml
	LinkedDistrictsCSV string // Full linked analytical table
	DistrictDetailCSV  string // Linked table joined with directory names
	RunSummaryJSON     string // Machine-readable run summary
	EquityWorkbook     string // Excel workbook with charts
	EquitySummary      string // Human-readable summary text
}

// GetExecutableDir returns the directory containing the executable
func GetExecutableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve any symlinks to get the real path
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(realPath), nil
}

// NewPaths creates a Paths instance rooted at the given directory
func NewPaths(executableDir string) *Paths {
	dataDir := filepath.Join(executableDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: executableDir,
		DataDir:       dataDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		ReportsDir:    reportsDir,
		TablesDir:     filepath.Join(reportsDir, ReportTablesSubdir),
		LogsDir:       filepath.Join(executableDir, "logs"),

		ConfigFile:         filepath.Join(executableDir, ConfigFileName),
		LinkedDistrictsCSV: filepath.Join(reportsDir, LinkedDistrictsFile),
		DistrictDetailCSV:  filepath.Join(reportsDir, DistrictDetailFile),
		RunSummaryJSON:     filepath.Join(reportsDir, RunSummaryFile),
		EquityWorkbook:     filepath.Join(reportsDir, EquityWorkbookFile),
		EquitySummary:      filepath.Join(reportsDir, EquitySummaryFile),
	}
}

// GetPaths returns a Paths instance rooted at the executable directory
func GetPaths() (*Paths, error) {
	execDir, err := GetExecutableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(execDir), nil
}

// NewPathsFromConfig builds a Paths instance honoring the directory
// overrides in the configuration. Relative overrides resolve against
// the root directory, so the default config reproduces the standard
// layout. Overriding the reports directory moves every report artifact
// with it.
func NewPathsFromConfig(cfg *Config) (*Paths, error) {
	root := cfg.Paths.ExecutableDir
	if root == "" {
		execDir, err := GetExecutableDir()
		if err != nil {
			return nil, err
		}
		root = execDir
	}
	p := NewPaths(root)

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(root, dir)
	}

	if dir := cfg.Paths.CacheDir; dir != "" {
		p.CacheDir = resolve(dir)
	}
	if dir := cfg.Paths.ReportsDir; dir != "" {
		reports := resolve(dir)
		p.ReportsDir = reports
		p.TablesDir = filepath.Join(reports, ReportTablesSubdir)
		p.LinkedDistrictsCSV = filepath.Join(reports, LinkedDistrictsFile)
		p.DistrictDetailCSV = filepath.Join(reports, DistrictDetailFile)
		p.RunSummaryJSON = filepath.Join(reports, RunSummaryFile)
		p.EquityWorkbook = filepath.Join(reports, EquityWorkbookFile)
		p.EquitySummary = filepath.Join(reports, EquitySummaryFile)
	}
	if dir := cfg.Paths.LogsDir; dir != "" {
		p.LogsDir = resolve(dir)
	}
	return p, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.CacheDir,
		p.ReportsDir,
		p.TablesDir,
		p.LogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetCachePath returns the cache file path for a dataset stem and year,
// e.g. finance_2018.csv.
func (p *Paths) GetCachePath(stem string, year int) string {
	return filepath.Join(p.CacheDir, fmt.Sprintf("%s_%d.csv", stem, year))
}

// GetReportPath returns the full path for a file in the reports directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetTablePath returns the full path for a summary table file
func (p *Paths) GetTablePath(filename string) string {
	return filepath.Join(p.TablesDir, filename)
}

// GetLogPath returns the full path for a file in the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
