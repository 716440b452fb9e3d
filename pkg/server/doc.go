// Package server exposes callisto over HTTP.
//
// Routes:
//
//	GET    /health                       liveness probe
//	GET    /ready                        readiness probe
//	GET    /version                      build information
//	GET    /metrics                      Prometheus metrics (configurable path)
//	POST   /v1/estimate                  token estimate of a JSON body
//	GET    /v1/resources/{id}            page through an offloaded resource
//	DELETE /v1/resources/{id}            delete an offloaded resource
//
// The resource route accepts offset and limit (bytes) for paging, or path
// for a gjson query into a JSON payload. {id} is the resource UUID.
//
// Every request gets an X-Request-ID, is logged once on completion and is
// protected by panic recovery.
package server
