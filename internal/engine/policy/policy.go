package policy

// Policy holds the engine-wide business parameters. It is built once at
// startup and passed to every engine service at construction; services never
// hardcode these values at call sites.
type Policy struct {
	// Inspection/QA risk windows, in days before the hand-over date.
	InlineInspectionWindow int
	FinalInspectionWindow  int
	QATestWindow           int

	// Task due-date offsets, in days before the original ship date.
	InitialInspectionLead int
	InlineInspectionLead  int
	FinalInspectionLead   int
	ShipmentBookingLead   int

	// Program descriptions starting with one of these prefixes mark sample
	// and swatch orders, excluded from every OTD and risk calculation.
	ExcludedProgramPrefixes []string

	// PO numbers carrying this prefix are franchise orders, also excluded.
	FranchisePOPrefix string

	// Data before this year is known-incomplete and never reported.
	MinReportYear int

	// Days ahead within which an unmatched projection counts as due.
	ProjectionDueThreshold int

	// Absolute variance percentage above which a match is flagged.
	SignificantVariancePct int

	// Row chunk size for bulk inserts.
	BulkChunkSize int

	// Known make-to-order collection names, lower-cased. Checked before the
	// fallback token extraction.
	KnownCollections []string
}

// Default returns the production policy.
func Default() Policy {
	return Policy{
		InlineInspectionWindow:  14,
		FinalInspectionWindow:   7,
		QATestWindow:            45,
		InitialInspectionLead:   45,
		InlineInspectionLead:    30,
		FinalInspectionLead:     14,
		ShipmentBookingLead:     21,
		ExcludedProgramPrefixes: []string{"SMP ", "8X8 "},
		FranchisePOPrefix:       "FR-",
		MinReportYear:           2019,
		ProjectionDueThreshold:  90,
		SignificantVariancePct:  10,
		BulkChunkSize:           500,
		KnownCollections: []string{
			"hoxton",
			"ludlow",
			"portobello",
			"shoreditch",
			"camden",
			"marylebone",
			"pimlico",
		},
	}
}
