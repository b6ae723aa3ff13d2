// Package api exposes transcription over HTTP: a multipart upload endpoint
// mounted next to the server's health and info endpoints.
package api
