// Package archive stores verified webhook payloads in S3 or an S3 compatible
// service, one object per delivery under
// <prefix>/<provider>/<yyyy>/<mm>/<dd>/<event id>.json.
package archive
