package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal atomic.Uint64
	documentsDeletedTotal   atomic.Uint64
	summariesDegradedTotal  atomic.Uint64

	failures = newLabeledCounter()

	pipelineDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
	stageDuration    = newLabeledHistogram([]float64{10, 50, 100, 500, 1000, 5000, 30000, 60000})
)

// IncDocumentsProcessed counts a document archived by the pipeline.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentsFailed counts a pipeline run that ended with the given failure kind.
func IncDocumentsFailed(kind string) {
	failures.Inc(kind)
}

// IncSummariesDegraded counts a summary that fell back to a placeholder.
func IncSummariesDegraded() {
	summariesDegradedTotal.Add(1)
}

// AddDocumentsDeleted counts removed archive records.
func AddDocumentsDeleted(n int) {
	if n > 0 {
		documentsDeletedTotal.Add(uint64(n))
	}
}

// ObservePipelineDurationMs records an end-to-end pipeline duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
}

// ObserveStageDuration records how long a single pipeline stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	stageDuration.Observe(stage, float64(d.Microseconds())/1000.0)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_processed_total", "Documents analyzed and archived", documentsProcessedTotal.Load())
	writeLabeledCounter(&buf, "documents_failed_total", "Pipeline runs aborted, by failure kind", "kind", failures.Snapshot())
	writeCounter(&buf, "summaries_degraded_total", "Summaries replaced by a placeholder", summariesDegradedTotal.Load())
	writeCounter(&buf, "documents_deleted_total", "Archive records deleted", documentsDeletedTotal.Load())
	writeHistogram(&buf, "pipeline_duration_ms", "Pipeline duration in milliseconds", "", pipelineDuration.Snapshot())
	for _, stage := range stageDuration.Labels() {
		writeHistogram(&buf, "pipeline_stage_duration_ms", "Pipeline stage duration in milliseconds", stage, stageDuration.Get(stage).Snapshot())
	}
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{counts: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	l.counts[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

type labeledHistogram struct {
	mu      sync.Mutex
	buckets []float64
	series  map[string]*histogram
}

func newLabeledHistogram(buckets []float64) *labeledHistogram {
	return &labeledHistogram{buckets: buckets, series: make(map[string]*histogram)}
}

func (l *labeledHistogram) Get(label string) *histogram {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.series[label]
	if !ok {
		h = newHistogram(l.buckets)
		l.series[label] = h
	}
	return h
}

func (l *labeledHistogram) Observe(label string, value float64) {
	if value < 0 {
		value = 0
	}
	l.Get(label).Observe(value)
}

func (l *labeledHistogram) Labels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.series))
	for k := range l.series {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help, stage string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	prefix := ""
	if stage != "" {
		prefix = fmt.Sprintf("stage=%q,", stage)
	}
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{%sle=\"%s\"} %d\n", name, prefix, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{%sle=\"+Inf\"} %d\n", name, prefix, snap.count)
	if stage != "" {
		fmt.Fprintf(buf, "%s_sum{stage=%q} %s\n", name, stage, formatFloat(snap.sum))
		fmt.Fprintf(buf, "%s_count{stage=%q} %d\n", name, stage, snap.count)
		return
	}
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
