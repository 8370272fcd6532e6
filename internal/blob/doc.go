// Package blob copies picked images out of their transient location into
// storage the application controls, so gallery items always reference a
// durable URI.
//
// Two Relocator implementations are provided: LocalRelocator writes into a
// directory tree and MinioRelocator uploads to an S3-compatible bucket. Both
// place the image for item id of user userID at "<userID>/<id>.jpg", and both
// read sources only from beneath their configured staging directory.
package blob
