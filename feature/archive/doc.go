// Package archive uploads finished scans to S3 compatible object storage.
//
// Objects are stored under <prefix>/<dataset>/ with their local file names. Upload
// failures are reported to the batch runner and never change a scan's outcome; the
// local project stays authoritative.
package archive
