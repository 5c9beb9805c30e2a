package etagcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeTagged             = "tagged"
	outcomeNotModified        = "not_modified"
	outcomePreconditionFailed = "precondition_failed"
	outcomeBypass             = "bypass"
	outcomeFailOpen           = "fail_open"
)

var (
	// responsesTotal counts finalized responses by outcome
	responsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etag_validator_responses_total",
			Help: "Total number of responses seen by the ETag validator",
		},
		[]string{"outcome"}, // "tagged", "not_modified", "precondition_failed", "bypass", "fail_open"
	)

	// hashedBytesTotal counts body bytes run through the fingerprinter
	hashedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_validator_hashed_bytes_total",
			Help: "Total number of response body bytes fingerprinted",
		},
	)
)
