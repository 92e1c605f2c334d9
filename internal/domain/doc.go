// Package domain defines core data models and interfaces shared across the
// module. It contains plain types (key material, bundles, envelopes) and
// contracts (store/service interfaces) only; no cryptographic logic lives here.
package domain
