// Package middleware contains HTTP middleware for the status server.
//
// # Components
//
//   - auth: rejects requests without the configured X-API-Key header.
//   - rayid: tags every request with a ray id, stored in the request locals for
//     logger.WithRayID and echoed in the X-Ray-ID response header.
//
// Both are registered globally by the serve command, rayid first.
package middleware
