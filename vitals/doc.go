// Package vitals aggregates browser-reported performance signals into a
// single session snapshot, evaluates threshold alerts against it, and
// derives a gamified [0,100] score with qualitative feedback.
//
// A Session samples an injected Provider (the host instrumentation
// abstraction) through seven signal collectors that run concurrently and
// individually degrade to an explicit unknown value instead of failing.
// Collect joins all of them and replaces the snapshot's scalar set as one
// unit; TrackRender appends component render records synchronously at any
// time. CheckAlerts and Score read the snapshot on demand and skip metrics
// that have no data yet.
//
// All state lives in an injectable Store, so isolated concurrent sessions
// and deterministic tests need no globals.
package vitals
