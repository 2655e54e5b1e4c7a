package repository

const (
	platformsTable   = "platforms"
	trendsTable      = "trends"
	predictionsTable = "trend_predictions"
	contentsTable    = "contents"
)

// Schema returns the idempotent DDL for every table the service writes.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS platforms (
			name String,
			created_at DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree
		ORDER BY name`,
		`CREATE TABLE IF NOT EXISTS trends (
			id UUID,
			text String,
			hashtags Array(String),
			view_count Int64,
			platform LowCardinality(String),
			created_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (created_at, id)`,
		`CREATE TABLE IF NOT EXISTS trend_predictions (
			id UUID,
			trend_id UUID,
			topic String,
			predicted_views Int64,
			confidence_score Float64,
			upper_bound Int64,
			lower_bound Int64,
			prediction_date DateTime64(3, 'UTC'),
			target_date Date
		) ENGINE = MergeTree
		ORDER BY (target_date, trend_id)`,
		`CREATE TABLE IF NOT EXISTS contents (
			id UUID,
			trend_id UUID,
			type LowCardinality(String),
			suggestion String,
			format String,
			estimated_engagement String,
			created_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree
		ORDER BY (created_at, trend_id)`,
	}
}
