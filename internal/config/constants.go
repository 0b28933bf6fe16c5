package config

import "time"

// Application constants - all fixed values for the edequity pipeline
const (
	// Application Info
	AppName    = "edequity"
	AppVersion = "1.2.0"

	// Education statistics API defaults
	DefaultAPIBaseURL = "https://educationdata.urban.org/api"
	DefaultAPIVintage = "v1"

	// Dataset collection identifiers understood by the provider
	DatasetLevel        = "school-districts"
	DatasetSourceCCD    = "ccd"
	DatasetSourceEDGE   = "edge"
	TopicFinance        = "finance"
	TopicEnrollment     = "enrollment"
	TopicDirectory      = "directory"
	TopicCostIndex      = "cost-index"
	SubtopicRace        = "race"

	// Analysis defaults
	DefaultAnalysisYear = 2018
	// DefaultConcentrationThreshold is the composition percentage at or
	// above which a district counts as concentrated for a group; its
	// complement (100 - threshold) bounds the opposite pole.
	DefaultConcentrationThreshold = 75.0
	// DefaultBinWidth is the width of the equal-width composition bins
	// over [0, 100].
	DefaultBinWidth = 10.0

	// Earliest and latest school years the provider serves
	MinAnalysisYear = 1986
	MaxAnalysisYear = 2030

	// Network defaults
	DefaultHTTPTimeout  = 60 * time.Second
	DefaultAPIRateLimit = 4.0 // requests per second
	DefaultAPIBurst     = 2

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultCacheDir   = "data/cache"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Config file name searched next to the executable and under configs/
	ConfigFileName = "edequity.yaml"

	// Environment variable prefix for envconfig
	EnvPrefix = "EDEQ"

	// Run timeouts
	DefaultRunTimeout   = 2 * time.Hour
	DefaultFetchTimeout = 45 * time.Minute
	DefaultStageTimeout = 15 * time.Minute

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/edequity.log"
)

// Cached dataset file name stems; the cache appends the year, e.g.
// finance_2018.csv.
const (
	CacheStemFinance    = "finance"
	CacheStemEnrollment = "enrollment_race"
	CacheStemDirectory  = "directory"
	CacheStemCostIndex  = "cost_index"
)

// Well-known report artifact file names under the reports directory.
const (
	LinkedDistrictsFile = "linked_districts.csv"
	DistrictDetailFile  = "district_detail.csv"
	RunSummaryFile      = "run_summary.json"
	EquityWorkbookFile  = "equity_report.xlsx"
	EquitySummaryFile   = "equity_summary.txt"
	ReportTablesSubdir  = "tables"
)
