package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus creates the service registry. Besides build info, runtime and
// process metrics it exposes the connection pool stats of sqlDB as go_sql_*
// series labeled with dbName. A nil sqlDB is skipped.
func SetupPrometheus(sqlDB *sql.DB, dbName string) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sqlDB != nil {
		promRegistry.MustRegister(collectors.NewDBStatsCollector(sqlDB, dbName))
	}

	return promRegistry
}
