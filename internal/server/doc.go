// Package server hosts the Fiber preview service. It accepts saved tool documents over
// HTTP, runs them through the rewrite manager, wraps them for the sandboxed renderer and
// serves the cached files back under the cache root path so rewritten references resolve.
// Everything binds to loopback; the service is a local companion of the desktop host.
package server
