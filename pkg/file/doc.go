// Package file reads blobs such as e-mail templates from S3 (aws-sdk-go-v2)
// or from a local directory. Both backends implement Reader and map backend
// specific failures onto the sentinel errors in errors.go, so callers can
// tell a missing object (ErrFileNotFound) from an access or transport
// problem.
package file
