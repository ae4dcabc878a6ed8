// Package vstbridge runs a plugin that exposes the synchronous dispatcher
// interface described in package abi inside a separate worker process, while
// the hosting process keeps calling it as if it were local.
//
// The caller side is Remote, which implements abi.Effect and abi.Chunker. The
// worker side is Worker, run by cmd/vstbridge-worker. The two exchange frames
// over three shared-memory data ports:
//
//   - control: calls made on the thread that opened the session;
//   - audio: calls made on any other thread, block processing in particular;
//   - callback: host callbacks made by the plugin.
//
// Routing follows the OS thread. A goroutine that owns a session should stay
// on its thread with runtime.LockOSThread, as should an audio goroutine.
package vstbridge
