// Package api exposes the task and guest request services over HTTP. It
// decodes and validates request bodies, resolves the authenticated actor,
// and maps service errors onto status codes without leaking internals.
package api
