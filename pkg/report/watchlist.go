package report

// Watchlist drives customer-impact and breaking-change detection in
// the classifier. Every field is a flat list of strings so teams can
// maintain the file by hand.
type Watchlist struct {
	CriticalCustomers      []string `json:"critical_customers"`
	WatchedFeatures        []string `json:"watched_features"`
	BreakingChangeKeywords []string `json:"breaking_change_keywords"`
	HighRiskPaths          []string `json:"high_risk_paths"`
	MigrationPatterns      []string `json:"migration_patterns"`

	// FromDefaults records whether this watchlist came from the
	// built-in defaults rather than a file. Summaries surface it so
	// readers know impact analysis ran without team-specific data.
	FromDefaults bool `json:"-"`
}

// DefaultWatchlist returns the watchlist used when no file exists on
// disk. It carries no customer or feature names, only generic
// breaking-change keywords and migration path patterns.
func DefaultWatchlist() *Watchlist {
	return &Watchlist{
		CriticalCustomers: []string{},
		WatchedFeatures:   []string{},
		BreakingChangeKeywords: []string{
			"BREAKING",
			"BREAKING CHANGE",
			"deprecated",
			"removed",
			"drop support",
			"incompatible",
		},
		HighRiskPaths: []string{},
		MigrationPatterns: []string{
			"migrations/",
			"alembic/versions/",
			"db/migrate/",
		},
		FromDefaults: true,
	}
}
