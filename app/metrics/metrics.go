// Package metrics exposes process-wide counters for bulk analysis
// activity, rendered in Prometheus text exposition format.
package metrics

import (
	"fmt"
	"sync/atomic"
)

var (
	jobsStarted   uint64
	jobsCompleted uint64
	jobsFailed    uint64
	urlsAnalyzed  uint64
	urlsFailed    uint64
)

func JobStarted()   { atomic.AddUint64(&jobsStarted, 1) }
func JobCompleted() { atomic.AddUint64(&jobsCompleted, 1) }
func JobFailed()    { atomic.AddUint64(&jobsFailed, 1) }
func URLAnalyzed()  { atomic.AddUint64(&urlsAnalyzed, 1) }
func URLFailed()    { atomic.AddUint64(&urlsFailed, 1) }

// Render returns the counters in text exposition format.
func Render() string {
	return fmt.Sprintf(
		"seowatch_up 1\n"+
			"seowatch_jobs_started_total %d\n"+
			"seowatch_jobs_completed_total %d\n"+
			"seowatch_jobs_failed_total %d\n"+
			"seowatch_urls_analyzed_total %d\n"+
			"seowatch_urls_failed_total %d\n",
		atomic.LoadUint64(&jobsStarted),
		atomic.LoadUint64(&jobsCompleted),
		atomic.LoadUint64(&jobsFailed),
		atomic.LoadUint64(&urlsAnalyzed),
		atomic.LoadUint64(&urlsFailed),
	)
}
