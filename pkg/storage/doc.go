// Package storage provides object storage for customer artwork and other
// uploads, with S3 and local filesystem backends.
//
// Every organization's blobs live under a dedicated key prefix
// (orgs/<uuid>/), built with OrgPrefix and ObjectKey. TotalSize over that
// prefix is what the storage usage counter reports against the plan's
// storage limit.
package storage
