package archive

// Report is an archived copy of a published report.
type Report struct {
	ID           int64
	WindowKey    string
	StartDate    string
	EndDate      string
	Title        string
	BodyMarkdown string
	EntryCount   int
	GapCount     int
	ThemeCount   int
	RecordID     *string
	GeneratedAt  *string
}

// Run records the outcome of one pipeline invocation.
type Run struct {
	ID          int64
	WindowKey   string
	State       string
	Error       *string
	EntryCount  int
	GapCount    int
	DefectCount int
	FinishedAt  *string
}

// Stats contains aggregate archive statistics.
type Stats struct {
	Reports       int
	Runs          int
	FailedRuns    int
	LastWindowKey string
}
