package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	uploadsTotal         atomic.Uint64
	downloadsTotal       atomic.Uint64
	downloadFailedTotal  atomic.Uint64
	decryptFallbackTotal atomic.Uint64

	downloadDuration = newHistogram([]float64{10, 50, 100, 250, 500, 1000, 5000, 30000, 120000})
)

// IncUploads increments the upload counter.
func IncUploads() {
	uploadsTotal.Add(1)
}

// IncDownloads increments the download counter.
func IncDownloads() {
	downloadsTotal.Add(1)
}

// IncDownloadFailed increments the failed-download counter.
func IncDownloadFailed() {
	downloadFailedTotal.Add(1)
}

// IncDecryptFallback counts reads served as raw bytes because authenticated
// decryption failed.
func IncDecryptFallback() {
	decryptFallbackTotal.Add(1)
}

// ObserveDownloadDurationMs records a download duration in milliseconds.
func ObserveDownloadDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	downloadDuration.Observe(value)
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
	writeCounter(&buf, "blob_uploads_total", "Total objects uploaded", uploadsTotal.Load())
	writeCounter(&buf, "blob_downloads_total", "Total object downloads started", downloadsTotal.Load())
	writeCounter(&buf, "blob_download_failed_total", "Total object downloads that failed", downloadFailedTotal.Load())
	writeCounter(&buf, "blob_decrypt_fallback_total", "Total reads served raw after failed decryption", decryptFallbackTotal.Load())
	writeHistogram(&buf, "blob_download_duration_ms", "Download duration in milliseconds", downloadDuration.Snapshot())
	return buf.String()
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

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
