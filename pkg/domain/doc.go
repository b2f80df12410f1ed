// Package domain contains the core entities of the loan approval service:
// applicant records as ingested, the numeric feature vectors derived from them,
// approval labels, and the published training artifacts. These types are free of
// infrastructure concerns so they can be shared by the pipeline, storage and API
// layers.
package domain
