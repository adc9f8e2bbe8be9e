// Package slug turns arbitrary strings into URL-safe identifiers.
//
// Letters and digits are kept and lowercased, common Latin diacritics fold
// to ASCII ("café" becomes "cafe") and everything else collapses into a
// hyphen. Organization slugs derived from company names are the main
// consumer.
//
//	slug.Make("Müller & Söhne Druck")
//	// "muller-sohne-druck"
//
//	slug.Make("Acme Print Co", slug.MaxLength(63), slug.WithSuffix(6))
//	// "acme-print-co-x7g3k2"
//
// All functions are safe for concurrent use; the suffix comes from
// crypto/rand.
package slug
