// Package storage provides object storage with pluggable backends. The
// archive keeps recorded utterances and their transcripts here.
//
// # Backends
//
//   - storage/local: a directory on the local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services such as MinIO
//
// Backends register a Factory from an init function; import the ones you
// need for their side effect.
//
// # Configuration
//
//	archive:
//	  enabled: true
//	  provider: "s3"
//	  s3:
//	    bucket: "recordings"
//	    region: "us-east-1"
package storage
