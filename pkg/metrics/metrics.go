package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	batchAnnotator = "batch_annotator"

	// Batch metrics
	batchesStartedTotal = "batches_started_total"
	filesProcessedTotal = "files_processed_total"

	// Annotation metrics
	AnnotationsInFlight = "annotations_in_flight"

	// Labels
	analysisTypeLabel = "analysis_type"
	fileStateLabel    = "state"
)

var batchesStartedLabels = []string{
	analysisTypeLabel,
}

var filesProcessedLabels = []string{
	fileStateLabel,
}

/**
* Metrics definition
**/
var batchesStartedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: batchAnnotator,
		Name:      batchesStartedTotal,
		Help:      "number of batches started, partitioned by analysis type",
	},
	batchesStartedLabels,
)

var filesProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: batchAnnotator,
		Name:      filesProcessedTotal,
		Help:      "number of files pushed through the streaming engine, partitioned by outcome",
	},
	filesProcessedLabels,
)

var annotationsInFlightMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: batchAnnotator,
		Name:      AnnotationsInFlight,
		Help:      "number of annotation requests currently awaiting a reply from the annotation service",
	},
)

func IncreaseBatchesStartedMetric(analysisType string) {
	labels := prometheus.Labels{
		analysisTypeLabel: analysisType,
	}
	batchesStartedTotalMetric.With(labels).Inc()
}

func IncreaseFilesProcessedMetric(state string) {
	labels := prometheus.Labels{
		fileStateLabel: state,
	}
	filesProcessedTotalMetric.With(labels).Inc()
}

func IncreaseAnnotationsInFlightMetric() {
	annotationsInFlightMetric.Inc()
}

func DecreaseAnnotationsInFlightMetric() {
	annotationsInFlightMetric.Dec()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(batchesStartedTotalMetric)
	prometheus.MustRegister(filesProcessedTotalMetric)
	prometheus.MustRegister(annotationsInFlightMetric)
}
