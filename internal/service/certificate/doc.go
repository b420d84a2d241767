// Package certificate implements certificate issuance and lookup.
//
// The batch generator consumes pre-validated import rows and, for each
// row, sequentially allocates a certificate number, encodes a verification
// QR code, renders a PDF in the external renderer, uploads the artifact,
// and persists the record. A single row's failure never aborts the batch;
// failures accumulate per row and are reported alongside the success
// count.
//
// Rows are processed strictly in order with no intra-call parallelism:
// each render holds a headless browser page, and sequencing bounds the
// memory footprint of one request. The persistent store's uniqueness
// constraint on certificate_number remains the authoritative guard against
// concurrent allocation of the same number.
package certificate
