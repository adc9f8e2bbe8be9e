// Package requestid correlates log records and responses belonging to the
// same HTTP request.
//
// Middleware adopts a client-supplied "X-Request-ID" header when it passes
// validation, otherwise it generates a UUIDv4. The chosen ID is stored in the
// request context, echoed in the response header, and surfaced to slog via
// LoggerExtractor. WithContext and FromContext move the ID in and out of a
// context.Context directly.
//
// # Usage
//
//	mux := http.NewServeMux()
//	mux.Handle("/hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//		id := requestid.FromContext(r.Context())
//		w.Write([]byte("hello, your request id is " + id))
//	}))
//
//	http.ListenAndServe(":8080", requestid.Middleware(mux))
//
// The package returns no errors; an invalid inbound ID is silently replaced
// with a fresh UUID.
package requestid
