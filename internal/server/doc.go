// Package server exposes the point-of-sale manager as a local JSON API.
//
// Routes live under /api/v1 with a /healthz probe at the root. Request
// bodies are validated here before they reach the manager: product fields,
// duplicate ids, sale quantities, stock and payment, and settings values.
// Responses share one envelope:
//
//	{"status":"ok","data":...}
//	{"status":"error","error":{"code":404,"message":"product 9 not found"}}
package server
