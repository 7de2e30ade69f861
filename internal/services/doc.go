// Package services provides the centralized service registry for hubd.
//
// The registry wires the long-lived components (cache store, index builder,
// search engine, sync engine and scheduler, wiki watcher) behind accessor
// methods so command entry points share one construction path.
package services
