// Package web serves the channel swap tool over HTTP.
//
// The upload page renders one session cycle per request: the original and
// swapped previews and the download are inlined as data URIs, so nothing is
// kept on the server between requests. POST /api/swap runs the same cycle
// for scripts and returns the swapped bitmap directly. Help text is served
// in English or Simplified Chinese based on Accept-Language.
//
// A running server holds an flock lock file in the state directory.
package web
